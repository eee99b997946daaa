package djen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"DjenScanner/internal/config"
	"DjenScanner/internal/domain"
	"DjenScanner/internal/ports"
)

const userAgent = "DjenScanner/1.0"

// electronicDiary restricts queries to the Diário Eletrônico medium.
const electronicDiary = "D"

// Envelope is the response wrapper returned by the communications API.
type Envelope struct {
	Status string            `json:"status"`
	Count  int               `json:"count"`
	Items  []json.RawMessage `json:"items"`
}

// Client queries the DJEN communications API for the tracked lawyer.
type Client struct {
	baseURL       string
	pageSize      int
	daysBack      int
	lawyerName    string
	registrations []config.OABRegistration
	httpClient    *http.Client
	logger        *slog.Logger
}

var _ ports.NotificationSource = (*Client)(nil)

// NewClient wires an HTTP client; a nil client gets the configured timeout.
func NewClient(apiCfg config.APIConfig, lawyerCfg config.LawyerConfig, client *http.Client, logger *slog.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: apiCfg.Timeout()}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:       apiCfg.URL,
		pageSize:      apiCfg.PageSize,
		daysBack:      apiCfg.DaysBack,
		lawyerName:    lawyerCfg.Name,
		registrations: lawyerCfg.Registrations,
		httpClient:    client,
		logger:        logger,
	}
}

// SearchByName queries notifications addressed to a lawyer by name.
func (c *Client) SearchByName(ctx context.Context, name, dateFrom, dateTo string, page int) (*Envelope, error) {
	dateFrom, dateTo = c.dateRange(dateFrom, dateTo)

	params := url.Values{}
	params.Set("nomeAdvogado", name)
	c.setCommonParams(params, dateFrom, dateTo, page)

	return c.request(ctx, params)
}

// SearchByOAB queries notifications addressed to one OAB registration.
func (c *Client) SearchByOAB(ctx context.Context, number, uf, dateFrom, dateTo string, page int) (*Envelope, error) {
	dateFrom, dateTo = c.dateRange(dateFrom, dateTo)

	params := url.Values{}
	params.Set("numeroOab", number)
	params.Set("ufOab", uf)
	c.setCommonParams(params, dateFrom, dateTo, page)

	return c.request(ctx, params)
}

// SearchAllRegistered sweeps the name query plus every registration in fixed
// order, dropping items whose identifier was already seen. A failed sub-query
// is logged and folded into the joined error without stopping the sweep.
func (c *Client) SearchAllRegistered(ctx context.Context, dateFrom, dateTo string) ([]domain.RawItem, error) {
	var (
		items []domain.RawItem
		errs  []error
	)
	seen := map[string]struct{}{}

	c.logger.Info("sweeping registered queries", "registrations", len(c.registrations))

	env, err := c.SearchByName(ctx, c.lawyerName, dateFrom, dateTo, 1)
	if err != nil {
		c.logger.Warn("name query failed", "error", err)
		errs = append(errs, fmt.Errorf("name query: %w", err))
	} else {
		added := c.appendNew(&items, seen, env)
		c.logger.Info("name query done", "total", len(env.Items), "new", added)
	}

	for _, reg := range c.registrations {
		env, err := c.SearchByOAB(ctx, reg.Number, reg.UF, dateFrom, dateTo, 1)
		if err != nil {
			c.logger.Warn("oab query failed", "number", reg.Number, "uf", reg.UF, "error", err)
			errs = append(errs, fmt.Errorf("oab %s/%s: %w", reg.Number, reg.UF, err))
			continue
		}
		added := c.appendNew(&items, seen, env)
		c.logger.Info("oab query done", "number", reg.Number, "uf", reg.UF, "total", len(env.Items), "new", added)
	}

	c.logger.Info("sweep finished", "unique_items", len(items))
	return items, errors.Join(errs...)
}

// Ping reports whether a default-range name query succeeds.
func (c *Client) Ping(ctx context.Context) bool {
	if _, err := c.SearchByName(ctx, c.lawyerName, "", "", 1); err != nil {
		c.logger.Warn("connectivity check failed", "error", err)
		return false
	}
	return true
}

func (c *Client) setCommonParams(params url.Values, dateFrom, dateTo string, page int) {
	params.Set("dataDisponibilizacaoInicio", dateFrom)
	params.Set("dataDisponibilizacaoFim", dateTo)
	params.Set("itensPorPagina", strconv.Itoa(c.pageSize))
	params.Set("meio", electronicDiary)
	params.Set("pagina", strconv.Itoa(page))
}

// dateRange defaults an unspecified range to daysBack days ago through today.
func (c *Client) dateRange(dateFrom, dateTo string) (string, string) {
	if dateFrom != "" && dateTo != "" {
		return dateFrom, dateTo
	}

	today := time.Now()
	from := today.AddDate(0, 0, -c.daysBack)
	return from.Format("2006-01-02"), today.Format("2006-01-02")
}

func (c *Client) request(ctx context.Context, params url.Values) (*Envelope, error) {
	endpoint := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("api returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if env.Status != "success" {
		return nil, fmt.Errorf("api status %q", env.Status)
	}

	c.logger.Debug("query succeeded", "count", env.Count)
	return &env, nil
}

// appendNew decodes envelope items and appends those whose identifier has not
// been seen in this sweep, returning how many were added.
func (c *Client) appendNew(items *[]domain.RawItem, seen map[string]struct{}, env *Envelope) int {
	added := 0
	for _, payload := range env.Items {
		var item domain.RawItem
		if err := json.Unmarshal(payload, &item); err != nil {
			c.logger.Warn("skipping undecodable item", "error", err)
			continue
		}
		item.Payload = payload

		id := item.ID.String()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		*items = append(*items, item)
		added++
	}
	return added
}

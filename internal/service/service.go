// Package service holds the domain adapters. Each adapter validates input,
// shapes the backend call and records every call on a per-kind tracker.
package service

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/fraudcheck/cli/internal/api"
	"github.com/fraudcheck/cli/internal/models"
	"github.com/fraudcheck/cli/internal/utils"
)

// Transport is the part of the API client the adapters use
type Transport interface {
	Do(ctx context.Context, req api.Request, out any) error
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

// pageQuery validates paging parameters and encodes them as a query string
func pageQuery(limit, offset int) (url.Values, error) {
	page := models.NewPagination(limit, offset)
	if err := utils.ValidateStruct(page); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(page.Limit))
	q.Set("offset", strconv.Itoa(page.Offset))
	return q, nil
}

// parseID checks that id is a UUID before it is put into a path
func parseID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, utils.NewValidationError("id", "must be a valid UUID")
	}
	return parsed, nil
}

// checkResponse rejects a backend payload that breaks its own contract
func checkResponse(what string, v any) error {
	if err := utils.ValidateStruct(v); err != nil {
		return utils.NewAPIError(http.StatusBadGateway, "invalid "+what+" in response: "+utils.Message(err), "invalid_response")
	}
	return nil
}

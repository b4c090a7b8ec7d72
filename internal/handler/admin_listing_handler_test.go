package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlistr/listings-api/internal/dto"
	"github.com/openlistr/listings-api/internal/models"
	appErrors "github.com/openlistr/listings-api/pkg/errors"
)

type listingManagerMock struct {
	details map[string]*models.ListingDetail
	deleted []string
	err     error
}

func (m *listingManagerMock) Create(ctx context.Context, req dto.CreateListingRequest) (*models.ListingDetail, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.ListingDetail{Listing: models.Listing{ID: "l1", Title: req.Title, Status: models.ListingStatusDraft}}, nil
}

func (m *listingManagerMock) Update(ctx context.Context, id string, req dto.UpdateListingRequest) (*models.ListingDetail, error) {
	if m.err != nil {
		return nil, m.err
	}
	detail, ok := m.details[id]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	detail.Title = req.Title
	return detail, nil
}

func (m *listingManagerMock) Get(ctx context.Context, id string) (*models.ListingDetail, error) {
	detail, ok := m.details[id]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	return detail, nil
}

func (m *listingManagerMock) Delete(ctx context.Context, id string) error {
	if _, ok := m.details[id]; !ok {
		return appErrors.ErrNotFound
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func newAdminHandler(t *testing.T, mock *listingManagerMock) *AdminListingHandler {
	t.Helper()
	return NewAdminListingHandler(mock, newHandlerRenderer(t), newTestSigner())
}

func TestAdminListingHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAdminHandler(t, &listingManagerMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.CreateListingRequest{Title: "Corner Cafe"})
	c.Request, _ = http.NewRequest(http.MethodPost, "/admin/listings", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope struct {
		Data models.ListingDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "Corner Cafe", envelope.Data.Title)
	assert.Equal(t, models.ListingStatusDraft, envelope.Data.Status)
}

func TestAdminListingHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAdminHandler(t, &listingManagerMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/admin/listings", bytes.NewReader([]byte(`not json`)))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminListingHandlerUpdateNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAdminHandler(t, &listingManagerMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.UpdateListingRequest{Title: "Corner Cafe"})
	c.Request, _ = http.NewRequest(http.MethodPut, "/admin/listings/missing", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Update(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminListingHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &listingManagerMock{details: map[string]*models.ListingDetail{
		"l1": {Listing: models.Listing{ID: "l1", Title: "Corner Cafe"}},
	}}
	handler := newAdminHandler(t, mock)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodDelete, "/admin/listings/l1", nil)
	c.Params = gin.Params{{Key: "id", Value: "l1"}}

	handler.Delete(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"l1"}, mock.deleted)
}

func TestAdminListingHandlerFormPrefilled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &listingManagerMock{details: map[string]*models.ListingDetail{
		"l1": {
			Listing:    models.Listing{ID: "l1", Title: "Corner Cafe"},
			Attributes: map[string]any{"tagline": "Best espresso"},
		},
	}}
	handler := newAdminHandler(t, mock)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/admin/listings/l1/form", nil)
	c.Params = gin.Params{{Key: "id", Value: "l1"}}

	handler.Form(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data dto.FormResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Contains(t, envelope.Data.Fragment, "Best espresso")
	assert.Contains(t, envelope.Data.Fragment, `data-item-id="l1"`)
	assert.Equal(t, "_token_listing-admin", envelope.Data.Token.Field)
}

func TestAdminListingHandlerBlankForm(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAdminHandler(t, &listingManagerMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/admin/listings/form", nil)

	handler.Form(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data dto.FormResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Contains(t, envelope.Data.Fragment, "field-tagline")
	assert.Contains(t, envelope.Data.Fragment, `data-item-id=""`)
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"zamahub/internal/browser"
	"zamahub/internal/http/middleware"
	"zamahub/internal/model"
	"zamahub/internal/service"
	serviceMocks "zamahub/internal/service/mocks"
	"zamahub/internal/storage"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const ownerAddr = "0x742d35cc6634c0532925a3b844bc454e4438f44e"

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var body errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

type formFile struct {
	field, name, contentType string
	content                  []byte
}

func multipartBody(t *testing.T, fields map[string]string, file *formFile) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.field, file.name))
		h.Set("Content-Type", file.contentType)
		part, err := writer.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file.content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Error.Code)
	})

	t.Run("in-memory store", func(t *testing.T) {
		app := fiber.New()
		app.Get("/health", HealthCheck(nil))
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterENS(t *testing.T) {
	in := service.RegisterENSInput{ENSName: "alice.eth", NodeHash: "0xabc", Owner: ownerAddr}

	tests := []struct {
		name       string
		body       string
		setup      func(m *serviceMocks.MockENSService)
		wantStatus int
		wantCode   string
	}{
		{
			name: "created",
			body: `{"ensName":"alice.eth","nodeHash":"0xabc","owner":"` + ownerAddr + `"}`,
			setup: func(m *serviceMocks.MockENSService) {
				m.On("Register", mock.Anything, in).Return(&model.ENSRegistration{ID: "reg-1"}, nil).Once()
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "malformed json",
			body:       `{"ensName":`,
			setup:      func(m *serviceMocks.MockENSService) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_BODY",
		},
		{
			name: "validation",
			body: `{"ensName":"alice.eth","nodeHash":"0xabc","owner":"` + ownerAddr + `"}`,
			setup: func(m *serviceMocks.MockENSService) {
				m.On("Register", mock.Anything, in).Return(nil, fmt.Errorf("%w: nodeHash mismatch", service.ErrValidation)).Once()
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name: "not the registry owner",
			body: `{"ensName":"alice.eth","nodeHash":"0xabc","owner":"` + ownerAddr + `"}`,
			setup: func(m *serviceMocks.MockENSService) {
				m.On("Register", mock.Anything, in).Return(nil, service.ErrUnauthorized).Once()
			},
			wantStatus: http.StatusForbidden,
			wantCode:   "UNAUTHORIZED",
		},
		{
			name: "chain down",
			body: `{"ensName":"alice.eth","nodeHash":"0xabc","owner":"` + ownerAddr + `"}`,
			setup: func(m *serviceMocks.MockENSService) {
				m.On("Register", mock.Anything, in).Return(nil, service.ErrBlockchainUnavailable).Once()
			},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "BLOCKCHAIN_UNAVAILABLE",
		},
		{
			name: "store down",
			body: `{"ensName":"alice.eth","nodeHash":"0xabc","owner":"` + ownerAddr + `"}`,
			setup: func(m *serviceMocks.MockENSService) {
				m.On("Register", mock.Anything, in).Return(nil, fmt.Errorf("%w: insert: %w", service.ErrPersistence, errors.New("pq: secret detail"))).Once()
			},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "PERSISTENCE_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(serviceMocks.MockENSService)
			tt.setup(mockSvc)
			app := fiber.New()
			app.Use(middleware.RequestID())
			app.Post("/api/ens", RegisterENS(mockSvc))

			req := httptest.NewRequest(http.MethodPost, "/api/ens", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, _ := app.Test(req)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantCode == "" {
				var body registerENSResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.True(t, body.Success)
				assert.Equal(t, "reg-1", body.ID)
			} else {
				body := decodeError(t, resp)
				assert.Equal(t, tt.wantCode, body.Error.Code)
				assert.NotEmpty(t, body.RequestID)
				assert.NotContains(t, body.Error.Message, "secret")
			}
			mockSvc.AssertExpectations(t)
		})
	}
}

func TestListENSNames(t *testing.T) {
	mockSvc := new(serviceMocks.MockENSService)
	app := fiber.New()
	app.Get("/api/ens", ListENSNames(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("ListByOwner", mock.Anything, ownerAddr).Return([]string{"b.eth", "a.eth"}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/ens?owner="+ownerAddr, nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body ensNamesResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, []string{"b.eth", "a.eth"}, body.ENSNames)
	})

	t.Run("empty list is an array", func(t *testing.T) {
		mockSvc.On("ListByOwner", mock.Anything, "0x00").Return([]string{}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/ens?owner=0x00", nil))
		raw, _ := io.ReadAll(resp.Body)
		assert.JSONEq(t, `{"ensNames":[]}`, string(raw))
	})

	t.Run("missing owner", func(t *testing.T) {
		mockSvc.On("ListByOwner", mock.Anything, "").Return(nil, fmt.Errorf("%w: owner is required", service.ErrValidation)).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/ens", nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
	mockSvc.AssertExpectations(t)
}

func TestCreateSpace(t *testing.T) {
	fields := map[string]string{
		"spaceId":          "0x01",
		"ensName":          "dao.eth",
		"displayName":      "DAO",
		"owner":            ownerAddr,
		"shortDescription": "short",
	}

	t.Run("with picture", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockSpaceService)
		app := fiber.New()
		app.Post("/api/spaces", CreateSpace(mockSvc, 1024))

		var content []byte
		mockSvc.On("Create", mock.Anything, mock.MatchedBy(func(in service.CreateSpaceInput) bool {
			return in.Picture != nil && in.SpaceID == "0x01" && in.Owner == ownerAddr &&
				in.Profile.ShortDescription == "short" && in.Picture.Filename == "avatar.png" &&
				in.Picture.ContentType == "image/png" && in.Picture.Size == 4
		})).Run(func(args mock.Arguments) {
			content, _ = io.ReadAll(args.Get(1).(service.CreateSpaceInput).Picture.Reader)
		}).Return(&model.Space{ID: "doc-1", SpaceID: "0x01"}, nil).Once()

		body, ct := multipartBody(t, fields, &formFile{field: "profilePicture", name: "avatar.png", contentType: "image/png", content: []byte("\x89PNG")})
		req := httptest.NewRequest(http.MethodPost, "/api/spaces", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var res createSpaceResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
		assert.Equal(t, createSpaceResponse{Success: true, SpaceID: "0x01", ID: "doc-1"}, res)
		assert.Equal(t, "\x89PNG", string(content))
		mockSvc.AssertExpectations(t)
	})

	t.Run("without picture", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockSpaceService)
		app := fiber.New()
		app.Post("/api/spaces", CreateSpace(mockSvc, 1024))

		mockSvc.On("Create", mock.Anything, mock.MatchedBy(func(in service.CreateSpaceInput) bool {
			return in.Picture == nil
		})).Return(&model.Space{ID: "doc-2", SpaceID: "0x01"}, nil).Once()

		body, ct := multipartBody(t, fields, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/spaces", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("picture too large", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockSpaceService)
		app := fiber.New()
		app.Post("/api/spaces", CreateSpace(mockSvc, 2))

		body, ct := multipartBody(t, fields, &formFile{field: "profilePicture", name: "big.png", contentType: "image/png", content: []byte("abcdef")})
		req := httptest.NewRequest(http.MethodPost, "/api/spaces", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
		assert.Equal(t, "FILE_TOO_LARGE", decodeError(t, resp).Error.Code)
		mockSvc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("duplicate", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockSpaceService)
		app := fiber.New()
		app.Post("/api/spaces", CreateSpace(mockSvc, 1024))
		mockSvc.On("Create", mock.Anything, mock.Anything).Return(nil, service.ErrConflict).Once()

		body, ct := multipartBody(t, fields, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/spaces", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("upload failure", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockSpaceService)
		app := fiber.New()
		app.Post("/api/spaces", CreateSpace(mockSvc, 1024))
		mockSvc.On("Create", mock.Anything, mock.Anything).Return(nil, service.ErrIO).Once()

		body, ct := multipartBody(t, fields, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/spaces", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "UPLOAD_FAILED", decodeError(t, resp).Error.Code)
	})
}

func TestGetSpace(t *testing.T) {
	mockSvc := new(serviceMocks.MockSpaceService)
	app := fiber.New()
	app.Get("/api/spaces/:spaceId", GetSpace(mockSvc))

	t.Run("found", func(t *testing.T) {
		created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
		mockSvc.On("Get", mock.Anything, "0x01").Return(&model.Space{
			ID: "doc-1", SpaceID: "0x01", ENSName: "dao.eth", DisplayName: "DAO", CreatedAt: created, UpdatedAt: created,
		}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/spaces/0x01", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "0x01", body["spaceId"])
		assert.Equal(t, "", body["profilePicture"])
		assert.Equal(t, "2025-01-02T03:04:05Z", body["createdAt"])
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("Get", mock.Anything, "0x02").Return(nil, service.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/spaces/0x02", nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})
	mockSvc.AssertExpectations(t)
}

func TestUpdateSpace(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"updated", nil, http.StatusOK, ""},
		{"not owner", service.ErrUnauthorized, http.StatusForbidden, "UNAUTHORIZED"},
		{"chain down", service.ErrBlockchainUnavailable, http.StatusServiceUnavailable, "BLOCKCHAIN_UNAVAILABLE"},
		{"missing", service.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"bad input", fmt.Errorf("%w: userAddress is required", service.ErrValidation), http.StatusBadRequest, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(serviceMocks.MockSpaceService)
			app := fiber.New()
			app.Put("/api/spaces/:spaceId", UpdateSpace(mockSvc, 1024))

			var ret *model.Space
			if tt.err == nil {
				ret = &model.Space{SpaceID: "0x01"}
			}
			call := mockSvc.On("Update", mock.Anything, mock.MatchedBy(func(in service.UpdateSpaceInput) bool {
				return in.SpaceID == "0x01" && in.UserAddress == ownerAddr && in.Profile.Website == "https://dao.example"
			}))
			if ret != nil {
				call.Return(ret, nil).Once()
			} else {
				call.Return(nil, tt.err).Once()
			}

			body, ct := multipartBody(t, map[string]string{"userAddress": ownerAddr, "website": "https://dao.example"}, nil)
			req := httptest.NewRequest(http.MethodPut, "/api/spaces/0x01", body)
			req.Header.Set("Content-Type", ct)
			resp, _ := app.Test(req)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, resp).Error.Code)
			} else {
				raw, _ := io.ReadAll(resp.Body)
				assert.JSONEq(t, `{"success":true}`, string(raw))
			}
			mockSvc.AssertExpectations(t)
		})
	}
}

type fakeLister struct {
	items []browser.SpaceSummary
	err   error
	calls []browser.Query
}

func (f *fakeLister) List(_ context.Context, q browser.Query) ([]browser.SpaceSummary, error) {
	f.calls = append(f.calls, q)
	if f.err != nil && q.Owner != "" {
		return nil, f.err
	}
	return f.items, nil
}

func TestListSpaces(t *testing.T) {
	lister := &fakeLister{items: []browser.SpaceSummary{{SpaceID: "0x01", DisplayName: "One", IsOwned: true}}}
	app := fiber.New()
	app.Get("/api/spaces", ListSpaces(lister))

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/spaces?q=one&owner="+ownerAddr+"&mine=true", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body spacesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 1, body.Total)
	assert.True(t, body.Spaces[0].IsOwned)
	assert.Equal(t, browser.Query{Q: "one", Owner: ownerAddr, Mine: true}, lister.calls[0])

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/api/spaces?mine=maybe", nil))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_MINE", decodeError(t, resp).Error.Code)

	failing := &fakeLister{err: fmt.Errorf("%w: rpc", service.ErrBlockchainUnavailable)}
	app = fiber.New()
	app.Get("/api/spaces", ListSpaces(failing))
	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/api/spaces?owner="+ownerAddr+"&mine=1", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestSpacesDashboard(t *testing.T) {
	lister := &fakeLister{items: []browser.SpaceSummary{
		{SpaceID: "0x01", DisplayName: "DeFi <Alliance>", ENSName: "defi.eth", Description: "Private governance", CreatedAt: time.Now().Add(-2 * time.Hour)},
	}}
	app := fiber.New()
	app.Get("/spaces", SpacesDashboard(lister))

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/spaces?q=defi", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	raw, _ := io.ReadAll(resp.Body)
	html := string(raw)
	assert.Contains(t, html, "DeFi &lt;Alliance&gt;")
	assert.Contains(t, html, "defi.eth")
	assert.Contains(t, html, "2h ago")
	assert.Contains(t, html, `value="defi"`)

	t.Run("ownership lookup fails", func(t *testing.T) {
		failing := &fakeLister{items: lister.items, err: service.ErrBlockchainUnavailable}
		app := fiber.New()
		app.Get("/spaces", SpacesDashboard(failing))

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/spaces?owner="+ownerAddr, nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		raw, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(raw), "Ownership could not be determined")
		assert.Len(t, failing.calls, 2)
	})
}

func TestServeUpload(t *testing.T) {
	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	content := []byte("\x89PNG\r\n\x1a\nimage")
	_, err = store.Put(context.Background(), "profiles/a.png", bytes.NewReader(content), storage.PutObjectOptions{Size: int64(len(content))})
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/uploads/*", ServeUpload(store))

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/uploads/profiles/a.png", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	got, _ := io.ReadAll(resp.Body)
	assert.Equal(t, content, got)

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/uploads/profiles/missing.png", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/uploads/profiles/..%2F..%2Fetc%2Fpasswd", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Get("/only-get", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })
	app.Get("/too-big", func(c *fiber.Ctx) error { return fiber.ErrRequestEntityTooLarge })
	app.Get("/panic-ish", func(c *fiber.Ctx) error { return errors.New("unexpected") })

	tests := []struct {
		method, path string
		status       int
		code         string
	}{
		{http.MethodGet, "/nowhere", http.StatusNotFound, "NOT_FOUND"},
		{http.MethodPost, "/only-get", http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
		{http.MethodGet, "/too-big", http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE"},
		{http.MethodGet, "/panic-ish", http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		resp, _ := app.Test(httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, tt.status, resp.StatusCode, tt.path)
		assert.Equal(t, tt.code, decodeError(t, resp).Error.Code, tt.path)
	}
}

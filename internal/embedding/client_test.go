package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func TestClient_Embed_Success(t *testing.T) {
	mockAPI := new(MockAPI)
	client := NewClientWithAPI(mockAPI, "test-model", 4)

	ctx := context.Background()
	expected := []float32{0.1, 0.2, 0.3, 0.4}
	mockAPI.On("CreateEmbeddings", ctx, "hello").Return(expected, nil)

	vector, err := client.Embed(ctx, "hello")

	require.NoError(t, err)
	assert.Equal(t, expected, vector)
	assert.Equal(t, "test-model", client.Model())
	assert.Equal(t, 4, client.Dimensions())
	mockAPI.AssertExpectations(t)
}

func TestClient_Embed_EmptyText(t *testing.T) {
	mockAPI := new(MockAPI)
	client := NewClientWithAPI(mockAPI, "m", 0)

	vector, err := client.Embed(context.Background(), "")

	assert.Nil(t, vector)
	assert.ErrorIs(t, err, ErrEmptyText)
	mockAPI.AssertNotCalled(t, "CreateEmbeddings", mock.Anything, mock.Anything)
}

func TestClient_Embed_APIError(t *testing.T) {
	mockAPI := new(MockAPI)
	client := NewClientWithAPI(mockAPI, "m", 0)

	ctx := context.Background()
	apiErr := errors.New("connection refused")
	mockAPI.On("CreateEmbeddings", ctx, "text").Return(nil, apiErr)

	vector, err := client.Embed(ctx, "text")

	assert.Nil(t, vector)
	assert.ErrorIs(t, err, apiErr)
	assert.Contains(t, err.Error(), "failed to create embedding")
}

func TestClient_Embed_WrongDimensions(t *testing.T) {
	mockAPI := new(MockAPI)
	client := NewClientWithAPI(mockAPI, "m", 384)

	ctx := context.Background()
	mockAPI.On("CreateEmbeddings", ctx, "text").Return(make([]float32, 512), nil)

	vector, err := client.Embed(ctx, "text")

	assert.Nil(t, vector)
	assert.ErrorIs(t, err, ErrWrongDimensions)
	assert.Contains(t, err.Error(), "expected 384, got 512")
}

func TestOpenAIAdapter_CompatibleEndpoint(t *testing.T) {
	var gotModel string
	var gotInput []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)

		var body struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotModel = body.Model
		gotInput = body.Input

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","model":"all-minilm","data":[{"object":"embedding","index":0,"embedding":[0.5,-0.25,1]}]}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL + "/v1", Dimensions: 3})

	vector, err := client.Embed(context.Background(), "Paris is the capital of France.")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -0.25, 1}, vector)
	assert.Equal(t, DefaultModel, gotModel)
	assert.Equal(t, []string{"Paris is the capital of France."}, gotInput)
}

func TestOpenAIAdapter_NoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[]}`))
	}))
	defer srv.Close()

	adapter := NewOpenAIAdapter("", srv.URL, "")

	_, err := adapter.CreateEmbeddings(context.Background(), "text")
	assert.ErrorIs(t, err, ErrNoData)
}

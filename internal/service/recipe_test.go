package service_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/mealplan-bot/backend/internal/mocks"
	"github.com/pageza/mealplan-bot/backend/internal/model"
	"github.com/pageza/mealplan-bot/backend/internal/service"
)

const filterBody = `{"meals":[
	{"strMeal":"Teriyaki Chicken Casserole","strMealThumb":"https://example.com/a.jpg","idMeal":"52772"},
	{"strMeal":"Chicken Handi","strMealThumb":"https://example.com/b.jpg","idMeal":"52795"}
]}`

func lookupBody(instructions string) string {
	return fmt.Sprintf(`{"meals":[{
		"idMeal":"52772",
		"strMeal":"Teriyaki Chicken Casserole",
		"strInstructions":%q,
		"strIngredient1":"soy sauce","strMeasure1":"3/4 cup",
		"strIngredient2":"water","strMeasure2":"1/2 cup",
		"strIngredient3":"chicken thighs","strMeasure3":null,
		"strIngredient4":"","strMeasure4":" ",
		"strIngredient5":null,"strMeasure5":null
	}]}`, instructions)
}

type fakeMealDB struct {
	filter http.HandlerFunc
	lookup http.HandlerFunc

	mu     sync.Mutex
	params map[string]string
}

func (f *fakeMealDB) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	if f.params == nil {
		f.params = map[string]string{}
	}
	f.params[r.URL.Path] = r.URL.Query().Get("i")
	f.mu.Unlock()

	switch r.URL.Path {
	case "/filter.php":
		f.filter(w, r)
	case "/lookup.php":
		f.lookup(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeMealDB) param(path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.params[path]
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func hang(w http.ResponseWriter, r *http.Request) {
	select {
	case <-r.Context().Done():
	case <-time.After(2 * time.Second):
	}
}

func newRecipeService(t *testing.T, fake *fakeMealDB, timeout time.Duration) *service.RecipeService {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return service.NewRecipeService(service.NewMealDBClient(srv.URL, srv.Client()), timeout)
}

func TestFindRecipe_Success(t *testing.T) {
	fake := &fakeMealDB{
		filter: respond(http.StatusOK, filterBody),
		lookup: respond(http.StatusOK, lookupBody("Preheat oven to 350F.")),
	}
	svc := newRecipeService(t, fake, time.Second)

	summary, err := svc.FindRecipe(context.Background(), "  chicken breast ")
	require.NoError(t, err)

	assert.Equal(t, "chicken breast", fake.param("/filter.php"))
	assert.Equal(t, "52772", fake.param("/lookup.php"), "the first candidate is looked up")
	assert.Equal(t, "Teriyaki Chicken Casserole", summary.Title)
	assert.Equal(t, []string{"3/4 cup soy sauce", "1/2 cup water", "chicken thighs"}, summary.Ingredients)

	msg := service.RecipeMessage(summary, nil)
	assert.Equal(t,
		"🍽️ Teriyaki Chicken Casserole\n\nIngredients:\n- 3/4 cup soy sauce\n- 1/2 cup water\n- chicken thighs\n\nInstructions:\nPreheat oven to 350F.",
		msg)
}

func TestFindRecipe_TruncatesInstructions(t *testing.T) {
	long := strings.Repeat("é", 800)
	fake := &fakeMealDB{
		filter: respond(http.StatusOK, filterBody),
		lookup: respond(http.StatusOK, lookupBody(long)),
	}
	svc := newRecipeService(t, fake, time.Second)

	summary, err := svc.FindRecipe(context.Background(), "chicken")
	require.NoError(t, err)

	msg := service.RecipeMessage(summary, nil)
	assert.True(t, strings.HasSuffix(msg, "Instructions:\n"+strings.Repeat("é", 700)))
}

func TestFindRecipe_Failures(t *testing.T) {
	tests := []struct {
		name    string
		fake    *fakeMealDB
		wantErr error
		wantMsg string
	}{
		{
			name:    "search timeout",
			fake:    &fakeMealDB{filter: hang, lookup: respond(http.StatusOK, lookupBody("x"))},
			wantErr: service.ErrServiceUnavailable,
			wantMsg: service.MsgRecipeUnavailable,
		},
		{
			name:    "search server error",
			fake:    &fakeMealDB{filter: respond(http.StatusInternalServerError, "oops"), lookup: respond(http.StatusOK, lookupBody("x"))},
			wantErr: service.ErrServiceUnavailable,
			wantMsg: service.MsgRecipeUnavailable,
		},
		{
			name:    "search bad json",
			fake:    &fakeMealDB{filter: respond(http.StatusOK, "<html>"), lookup: respond(http.StatusOK, lookupBody("x"))},
			wantErr: service.ErrServiceUnavailable,
			wantMsg: service.MsgRecipeUnavailable,
		},
		{
			name:    "no candidates",
			fake:    &fakeMealDB{filter: respond(http.StatusOK, `{"meals":null}`), lookup: respond(http.StatusOK, lookupBody("x"))},
			wantErr: service.ErrNoCandidates,
			wantMsg: service.MsgNoRecipes,
		},
		{
			name:    "no candidates as text",
			fake:    &fakeMealDB{filter: respond(http.StatusOK, `{"meals":"no data found"}`), lookup: respond(http.StatusOK, lookupBody("x"))},
			wantErr: service.ErrNoCandidates,
			wantMsg: service.MsgNoRecipes,
		},
		{
			name:    "detail timeout",
			fake:    &fakeMealDB{filter: respond(http.StatusOK, filterBody), lookup: hang},
			wantErr: service.ErrDetailUnavailable,
			wantMsg: service.MsgRecipeDetailsMissing,
		},
		{
			name:    "detail missing",
			fake:    &fakeMealDB{filter: respond(http.StatusOK, filterBody), lookup: respond(http.StatusOK, `{"meals":null}`)},
			wantErr: service.ErrDetailUnavailable,
			wantMsg: service.MsgRecipeDetailsMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newRecipeService(t, tt.fake, 50*time.Millisecond)

			summary, err := svc.FindRecipe(context.Background(), "chicken")
			assert.Nil(t, summary)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantMsg, service.RecipeMessage(summary, err))
		})
	}
}

func TestFindRecipe_ServiceUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	svc := service.NewRecipeService(service.NewMealDBClient(url, nil), time.Second)
	_, err := svc.FindRecipe(context.Background(), "chicken")

	assert.ErrorIs(t, err, service.ErrServiceUnavailable)
	var apiErr *service.APIError
	assert.ErrorAs(t, err, &apiErr)
}

func TestFindRecipe_WithMockClient(t *testing.T) {
	hasDeadline := mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	})

	t.Run("each call gets a deadline", func(t *testing.T) {
		client := new(mocks.MockMealDBClient)
		client.On("FilterByIngredient", hasDeadline, "salmon").
			Return([]model.MealCandidate{{ID: "1", Name: "Baked salmon"}}, nil)
		client.On("LookupMeal", hasDeadline, "1").
			Return(service.MealDetail{"strInstructions": "Bake it."}, nil)

		svc := service.NewRecipeService(client, time.Second)
		summary, err := svc.FindRecipe(context.Background(), "salmon")
		require.NoError(t, err)

		assert.Equal(t, "Baked salmon", summary.Title, "title falls back to the candidate name")
		assert.Equal(t, "1", summary.ID)
		assert.Empty(t, summary.Ingredients)
		client.AssertExpectations(t)
	})

	t.Run("timeout from client", func(t *testing.T) {
		client := new(mocks.MockMealDBClient)
		client.On("FilterByIngredient", mock.Anything, "salmon").
			Return(nil, &service.APIError{Endpoint: "filter.php", Message: "request failed", Cause: context.DeadlineExceeded})

		svc := service.NewRecipeService(client, time.Second)
		_, err := svc.FindRecipe(context.Background(), "salmon")

		assert.ErrorIs(t, err, service.ErrServiceUnavailable)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, service.MsgRecipeUnavailable, service.RecipeMessage(nil, err))
		client.AssertNotCalled(t, "LookupMeal", mock.Anything, mock.Anything)
	})

	t.Run("empty ingredient", func(t *testing.T) {
		client := new(mocks.MockMealDBClient)
		svc := service.NewRecipeService(client, time.Second)

		_, err := svc.FindRecipe(context.Background(), "   ")
		assert.ErrorIs(t, err, service.ErrMissingSlot)
		assert.Equal(t, service.MsgAskIngredient, service.RecipeMessage(nil, err))
		client.AssertNotCalled(t, "FilterByIngredient", mock.Anything, mock.Anything)
	})

	t.Run("results are not cached", func(t *testing.T) {
		client := new(mocks.MockMealDBClient)
		client.On("FilterByIngredient", mock.Anything, "egg").
			Return([]model.MealCandidate{{ID: "7", Name: "Omelette"}}, nil).Twice()
		client.On("LookupMeal", mock.Anything, "7").
			Return(service.MealDetail{"strMeal": "Omelette"}, nil).Twice()

		svc := service.NewRecipeService(client, time.Second)
		for i := 0; i < 2; i++ {
			_, err := svc.FindRecipe(context.Background(), "egg")
			require.NoError(t, err)
		}
		client.AssertExpectations(t)
	})
}

func TestAPIError(t *testing.T) {
	err := &service.APIError{Endpoint: "lookup.php", Message: "request failed", Cause: context.DeadlineExceeded}
	assert.True(t, err.Timeout())
	assert.Contains(t, err.Error(), "lookup.php")

	plain := &service.APIError{Endpoint: "filter.php", StatusCode: 503, Message: "HTTP status 503"}
	assert.False(t, plain.Timeout())
	assert.False(t, errors.Is(plain, context.DeadlineExceeded))
}

package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/user-management-api/internal/domain/entity"
)

type recorded struct {
	Method string
	Path   string
	Body   string
}

// fakeES answers like an Elasticsearch node and records every request.
func fakeES(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*UserIndex, *[]recorded) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recorded{Method: r.Method, Path: r.URL.Path, Body: string(body)})
		mu.Unlock()
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewUserIndex(es, "users"), &reqs
}

func sampleUser() *entity.User {
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return &entity.User{
		ID: "u1", Username: "johndoe", Email: "john@example.com",
		FirstName: "John", LastName: "Doe", Role: entity.RoleAdmin, Active: true,
		CreatedAt: ts, UpdatedAt: ts,
	}
}

func TestIndex_PutsDocument(t *testing.T) {
	idx, reqs := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	require.NoError(t, idx.Index(context.Background(), sampleUser()))

	require.Len(t, *reqs, 1)
	req := (*reqs)[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/users/_doc/u1", req.Path)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(req.Body), &doc))
	assert.Equal(t, "johndoe", doc["username"])
	assert.Equal(t, "John Doe", doc["full_name"])
	assert.Equal(t, "admin", doc["role"])
}

func TestIndex_ErrorStatus(t *testing.T) {
	idx, _ := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"mapper_parsing_exception"}`))
	})
	assert.Error(t, idx.Index(context.Background(), sampleUser()))
}

func TestDelete_IgnoresMissingDocument(t *testing.T) {
	idx, reqs := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"result":"not_found"}`))
	})

	require.NoError(t, idx.Delete(context.Background(), "u1"))
	require.Len(t, *reqs, 1)
	assert.Equal(t, http.MethodDelete, (*reqs)[0].Method)
	assert.Equal(t, "/users/_doc/u1", (*reqs)[0].Path)
}

func TestSearch_DecodesHits(t *testing.T) {
	idx, reqs := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hits":{"hits":[
			{"_id":"u1","_source":{"id":"u1","username":"johndoe","email":"john@example.com","first_name":"John","last_name":"Doe","role":"admin","active":true}},
			{"_id":"u2","_source":{"username":"janedoe","role":"user"}}
		]}}`))
	})

	users, err := idx.Search(context.Background(), "doe", 5)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "johndoe", users[0].Username)
	assert.Equal(t, entity.RoleAdmin, users[0].Role)
	assert.Equal(t, "u2", users[1].ID)

	require.Len(t, *reqs, 1)
	assert.True(t, strings.HasSuffix((*reqs)[0].Path, "/users/_search"))
	assert.Contains(t, (*reqs)[0].Body, `"multi_match"`)
	assert.Contains(t, (*reqs)[0].Body, `"size":5`)
}

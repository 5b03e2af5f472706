package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockMind/internal/domain"
)

func sampleSummary() domain.RunSummary {
	start := time.Date(2025, 3, 4, 6, 0, 0, 0, time.UTC)
	return domain.RunSummary{
		Status:             domain.RunCompleted,
		StartedAt:          start,
		FinishedAt:         start.Add(42 * time.Second),
		UsersProcessed:     2,
		AssessmentsCreated: 3,
		EmailsSent:         2,
		Errors:             []domain.RunError{{Scope: "tag:T2", Detail: "assess: quota"}},
	}
}

func TestNotifier_PublishRunSummary(t *testing.T) {
	var form map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, r.ParseForm())
		form = map[string]string{"chat_id": r.PostForm.Get("chat_id"), "text": r.PostForm.Get("text")}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewNotifier("TOKEN", "42")
	n.apiBase = srv.URL

	require.NoError(t, n.PublishRunSummary(context.Background(), sampleSummary()))
	assert.Equal(t, "42", form["chat_id"])
	assert.Contains(t, form["text"], "Assessments: 3")
	assert.Contains(t, form["text"], "- tag:T2: assess: quota")
}

func TestFormatSummary_ListsTagIDs(t *testing.T) {
	s := sampleSummary()
	id := uuid.MustParse("0b5e8a52-6a4f-4d0e-9d43-1f1f5d2a7c11")
	s.Errors = []domain.RunError{
		{Scope: "tag:NVDA", TagID: id, Detail: "assess: bad"},
		{Scope: "user:u@x.com", Detail: "deliver: down"},
	}

	text := FormatSummary(s)

	assert.Contains(t, text, "- tag:NVDA (0b5e8a52-6a4f-4d0e-9d43-1f1f5d2a7c11): assess: bad")
	assert.Contains(t, text, "- user:u@x.com: deliver: down")
}

func TestNotifier_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewNotifier("TOKEN", "42")
	n.apiBase = srv.URL
	assert.ErrorContains(t, n.PublishRunSummary(context.Background(), sampleSummary()), "400")

	assert.False(t, NewNotifier("", "42").Configured())
	assert.Error(t, NewNotifier("", "").PublishRunSummary(context.Background(), sampleSummary()))
}

func TestFormatSummary_TruncatesErrors(t *testing.T) {
	s := sampleSummary()
	s.Errors = nil
	for i := 0; i < maxListedErrors+3; i++ {
		s.Errors = append(s.Errors, domain.RunError{Scope: fmt.Sprintf("tag:T%d", i), Detail: "x"})
	}

	text := FormatSummary(s)

	assert.Equal(t, maxListedErrors, strings.Count(text, "\n- "))
	assert.Contains(t, text, "... and 3 more")
	assert.Contains(t, text, "Duration: 42s")

	s.Errors = nil
	assert.Contains(t, FormatSummary(s), "Errors: none")
}

package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"StockMind/internal/domain"
)

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type tagResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

type catalystResponse struct {
	ID        uuid.UUID `json:"id"`
	TagID     uuid.UUID `json:"tagId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type assessmentResponse struct {
	ID        uuid.UUID `json:"id"`
	TagID     uuid.UUID `json:"tagId"`
	Points    []string  `json:"points"`
	Sentiment string    `json:"sentiment"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"createdAt"`
}

type contentResponse struct {
	ID        uuid.UUID `json:"id"`
	TagID     uuid.UUID `json:"tagId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("bad_request", "invalid JSON body"))
		return
	}

	u, err := s.watchlist.SignIn(r.Context(), body.Email)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt})
}

func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.watchlist.ListTags(r.Context(), userFrom(r.Context()))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	out := make([]tagResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, toTag(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createTag(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
		Type string `json:"type"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("bad_request", "invalid JSON body"))
		return
	}

	tag, err := s.watchlist.CreateTag(r.Context(), userFrom(r.Context()), body.Name, domain.TagType(body.Type))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTag(tag))
}

func (s *Server) deleteTag(w http.ResponseWriter, r *http.Request) {
	tagID, ok := pathID(w, r, "tagID")
	if !ok {
		return
	}
	if err := s.watchlist.DeleteTag(r.Context(), userFrom(r.Context()), tagID); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listCatalysts(w http.ResponseWriter, r *http.Request) {
	tagID, ok := pathID(w, r, "tagID")
	if !ok {
		return
	}
	list, err := s.watchlist.ListCatalysts(r.Context(), userFrom(r.Context()), tagID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	out := make([]catalystResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toCatalyst(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) addCatalyst(w http.ResponseWriter, r *http.Request) {
	tagID, ok := pathID(w, r, "tagID")
	if !ok {
		return
	}
	var body struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("bad_request", "invalid JSON body"))
		return
	}

	c, err := s.watchlist.AddCatalyst(r.Context(), userFrom(r.Context()), tagID, body.Content)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCatalyst(c))
}

func (s *Server) deleteCatalyst(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "catalystID")
	if !ok {
		return
	}
	if err := s.watchlist.DeleteCatalyst(r.Context(), userFrom(r.Context()), id); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listAssessments(w http.ResponseWriter, r *http.Request) {
	tagID, ok := pathID(w, r, "tagID")
	if !ok {
		return
	}
	list, err := s.watchlist.ListAssessments(r.Context(), userFrom(r.Context()), tagID, queryLimit(r))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	out := make([]assessmentResponse, 0, len(list))
	for _, a := range list {
		out = append(out, assessmentResponse{
			ID:        a.ID,
			TagID:     a.TagID,
			Points:    a.Points,
			Sentiment: string(a.Sentiment),
			Summary:   a.Summary,
			CreatedAt: a.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listReports(w http.ResponseWriter, r *http.Request) {
	tagID, ok := pathID(w, r, "tagID")
	if !ok {
		return
	}
	list, err := s.analysis.ListReports(r.Context(), userFrom(r.Context()), tagID, queryLimit(r))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	out := make([]contentResponse, 0, len(list))
	for _, rep := range list {
		out = append(out, contentResponse{ID: rep.ID, TagID: rep.TagID, Content: rep.Content, CreatedAt: rep.CreatedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) generateReport(w http.ResponseWriter, r *http.Request) {
	tagID, ok := pathID(w, r, "tagID")
	if !ok {
		return
	}
	rep, err := s.analysis.GenerateReport(r.Context(), userFrom(r.Context()), tagID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, contentResponse{ID: rep.ID, TagID: rep.TagID, Content: rep.Content, CreatedAt: rep.CreatedAt})
}

func (s *Server) listOverallAnalyses(w http.ResponseWriter, r *http.Request) {
	tagID, ok := pathID(w, r, "tagID")
	if !ok {
		return
	}
	list, err := s.analysis.ListOverallAnalyses(r.Context(), userFrom(r.Context()), tagID, queryLimit(r))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	out := make([]contentResponse, 0, len(list))
	for _, a := range list {
		out = append(out, contentResponse{ID: a.ID, TagID: a.TagID, Content: a.Content, CreatedAt: a.CreatedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) generateOverallAnalysis(w http.ResponseWriter, r *http.Request) {
	tagID, ok := pathID(w, r, "tagID")
	if !ok {
		return
	}
	a, err := s.analysis.GenerateOverallAnalysis(r.Context(), userFrom(r.Context()), tagID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, contentResponse{ID: a.ID, TagID: a.TagID, Content: a.Content, CreatedAt: a.CreatedAt})
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("bad_request", "invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

func queryLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0
	}
	return n
}

func toTag(t domain.Tag) tagResponse {
	return tagResponse{ID: t.ID, Name: t.Name, Type: string(t.Type), CreatedAt: t.CreatedAt}
}

func toCatalyst(c domain.Catalyst) catalystResponse {
	return catalystResponse{ID: c.ID, TagID: c.TagID, Content: c.Content, CreatedAt: c.CreatedAt}
}

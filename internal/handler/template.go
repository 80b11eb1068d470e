package handler

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/lightfamily/internal/model"
	"github.com/dukerupert/lightfamily/internal/progress"
	"github.com/dukerupert/lightfamily/internal/tracker"
	"github.com/dukerupert/lightfamily/internal/verse"
	"github.com/dukerupert/lightfamily/web"
)

// TemplateHandler serves the dashboard page and the htmx partials it swaps in.
type TemplateHandler struct {
	tracker   *tracker.Tracker
	verse     *verse.Service
	templates *template.Template
	logger    *slog.Logger
}

func NewTemplateHandler(t *tracker.Tracker, v *verse.Service, logger *slog.Logger) *TemplateHandler {
	funcs := template.FuncMap{
		"allCompleted": progress.AllCompleted,
		"formatTime": func(ms int64) string {
			return time.UnixMilli(ms).Local().Format("Jan 2, 2006 3:04 PM")
		},
	}
	tmpl := template.Must(template.New("").Funcs(funcs).ParseFS(web.Templates, "templates/*.html"))
	return &TemplateHandler{
		tracker:   t,
		verse:     v,
		templates: tmpl,
		logger:    logger,
	}
}

type trackerView struct {
	Members       []model.FamilyMember
	Days          []model.Day
	ResetPrompt   string
	ShowAddMember bool
	Name          string
}

func (h *TemplateHandler) trackerView() trackerView {
	return trackerView{
		Members:     h.tracker.Members(),
		Days:        model.Days,
		ResetPrompt: ResetPrompt,
	}
}

func (h *TemplateHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data := map[string]any{
		"Title":       "Light Family",
		"Tracker":     h.trackerView(),
		"Reflections": h.tracker.Reflections(),
		"Verse":       h.verse.Status(),
		"Year":        time.Now().Year(),
	}
	h.render(w, "layout", data)
}

// TrackerSection renders the table; ?add=1 opens the add-member dialog.
func (h *TemplateHandler) TrackerSection(w http.ResponseWriter, r *http.Request) {
	view := h.trackerView()
	view.ShowAddMember = r.URL.Query().Get("add") == "1"
	h.renderPartial(w, "tracker-section", view)
}

// MemberCreate adds a member. A blank name leaves the dialog open.
func (h *TemplateHandler) MemberCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	name := r.FormValue("name")
	if _, ok := h.tracker.AddMember(name); !ok {
		view := h.trackerView()
		view.ShowAddMember = true
		view.Name = name
		h.renderPartial(w, "tracker-section", view)
		return
	}

	h.renderPartial(w, "tracker-section", h.trackerView())
}

func (h *TemplateHandler) ToggleDay(w http.ResponseWriter, r *http.Request) {
	day, ok := parseDayParam(r)
	if !ok {
		http.Error(w, "invalid day", http.StatusBadRequest)
		return
	}
	h.tracker.ToggleDay(r.PathValue("id"), day)
	h.renderPartial(w, "tracker-section", h.trackerView())
}

// UpdateNote saves the note without re-rendering, so typing focus is kept.
func (h *TemplateHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	day, ok := parseDayParam(r)
	if !ok {
		http.Error(w, "invalid day", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	h.tracker.UpdateNote(r.PathValue("id"), day, r.FormValue("note"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *TemplateHandler) ToggleAll(w http.ResponseWriter, r *http.Request) {
	h.tracker.ToggleAllDays(r.PathValue("id"))
	h.renderPartial(w, "tracker-section", h.trackerView())
}

// ResetWeek runs only after the browser confirmed and sent confirm=true.
func (h *TemplateHandler) ResetWeek(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	if r.FormValue("confirm") == "true" {
		h.tracker.ResetWeek()
		h.logger.Info("week reset")
	}
	h.renderPartial(w, "tracker-section", h.trackerView())
}

func (h *TemplateHandler) ReflectionFeed(w http.ResponseWriter, r *http.Request) {
	h.renderPartial(w, "reflection-feed", h.tracker.Reflections())
}

func (h *TemplateHandler) ReflectionCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	author := r.FormValue("author")
	content := r.FormValue("content")
	if strings.TrimSpace(content) != "" {
		h.tracker.AddReflection(author, content)
	}
	h.renderPartial(w, "reflection-feed", h.tracker.Reflections())
}

func (h *TemplateHandler) VerseCard(w http.ResponseWriter, r *http.Request) {
	h.renderPartial(w, "verse-card", h.verse.Status())
}

func (h *TemplateHandler) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("template error", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

func (h *TemplateHandler) renderPartial(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("template error", "template", name, "error", err)
		fmt.Fprint(w, `<div class="alert alert-error">Template error</div>`)
	}
}

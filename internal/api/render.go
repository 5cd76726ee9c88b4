package api

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Priya8975/guildlog/internal/colors"
	"github.com/Priya8975/guildlog/internal/logging"
	"golang.org/x/sync/errgroup"
)

// DefaultNameBudget bounds the guild lookups for one page when Deps leaves
// NameBudget unset.
const DefaultNameBudget = 3 * time.Second

// maxNameLookups caps the lookups in flight for one page.
const maxNameLookups = 8

//go:embed templates/*.html
var templateFS embed.FS

// pages holds the parsed templates. guildName and color are rebound per
// request.
var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"guildName": func(id int64) string { return strconv.FormatInt(id, 10) },
	"json":      toJSON,
	"color":     func(string) string { return colors.Fallback },
}).ParseFS(templateFS, "templates/*.html"))

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// guildNames maps the guild ids shown on one page to display names.
type guildNames map[int64]string

func (n guildNames) lookup(id int64) string {
	if name, ok := n[id]; ok {
		return name
	}
	return strconv.FormatInt(id, 10)
}

type renderer struct {
	names   NameResolver
	palette *colors.Palette
	budget  time.Duration
}

func newRenderer(names NameResolver, palette *colors.Palette, budget time.Duration) renderer {
	if budget <= 0 {
		budget = DefaultNameBudget
	}
	return renderer{names: names, palette: palette, budget: budget}
}

// resolveNames looks up the distinct ids concurrently under one deadline.
// A lookup cut off by the deadline yields the id in decimal.
func (rd renderer) resolveNames(ctx context.Context, ids []int64) guildNames {
	distinct := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			distinct = append(distinct, id)
		}
	}
	if len(distinct) == 0 {
		return guildNames{}
	}

	ctx, cancel := context.WithTimeout(ctx, rd.budget)
	defer cancel()

	resolved := make([]string, len(distinct))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxNameLookups)
	for i, id := range distinct {
		i, id := i, id
		g.Go(func() error {
			resolved[i] = rd.names.Resolve(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	out := make(guildNames, len(distinct))
	for i, id := range distinct {
		out[id] = resolved[i]
	}
	return out
}

// render executes the named page into a buffer, so a template error is
// returned before anything is written.
func (rd renderer) render(w http.ResponseWriter, log *slog.Logger, name string, data any, names guildNames) error {
	t, err := pages.Clone()
	if err != nil {
		return err
	}
	t.Funcs(template.FuncMap{
		"guildName": names.lookup,
		"color":     rd.palette.Color,
	})

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Warn("failed to write page", slog.String("page", name), logging.Err(err))
	}
	return nil
}

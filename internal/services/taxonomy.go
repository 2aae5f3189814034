package services

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/trendsight/trendsight-go/internal/config"
	"github.com/trendsight/trendsight-go/internal/models"
)

// TreeProvider fetches the authoritative category tree as flat records.
type TreeProvider interface {
	FetchCategoryTree(ctx context.Context) ([]models.CategoryNode, error)
	// IsStructuralError reports whether err means the channel itself is
	// unusable (method unavailable, unauthorized) rather than a transient
	// failure.
	IsStructuralError(err error) bool
}

// macroTaxonomy is the fixed ordered inference table. First matching entry
// wins.
var macroTaxonomy = []struct {
	Path     string
	Keywords []string
}{
	{"Electrónica > Cargadores", []string{"cargador", "charger", "charge", "usb", "pd", "fast charge"}},
	{"Electrónica > Accesorios", []string{"cable", "adaptador", "adapter", "hub", "dock"}},
	{"Telefonía > Fundas/Protección", []string{"funda", "protector", "case", "screen", "glass", "vidrio"}},
	{"Audio > Auriculares", []string{"auricular", "earbud", "headset", "audifono", "in-ear"}},
	{"Outdoor > Óptica/Telescopios", []string{"telescopio", "monocular", "binocular", "optica"}},
	{"Hogar > Organizadores", []string{"organizador", "brida", "clip", "holder", "soporte"}},
}

var stopwords = map[string]bool{
	"de": true, "para": true, "con": true, "sin": true, "y": true,
	"el": true, "la": true, "los": true, "las": true,
	"un": true, "una": true, "unos": true, "unas": true,
	"the": true, "and": true, "or": true, "for": true, "with": true,
	"without": true, "a": true, "an": true, "to": true, "of": true,
}

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// maxLabels bounds the tokens kept per category entry.
const maxLabels = 10

// TaxonomyResolver incrementally maps opaque category ids to human-readable
// macro paths. Resolution work per call is capped so request latency stays
// predictable; api_verified entries are terminal and never rewritten.
type TaxonomyResolver struct {
	cfg    config.TaxonomyConfig
	tree   TreeProvider
	logger *logrus.Logger

	mu      sync.Mutex
	entries map[string]models.CategoryEntry

	treeMu        sync.Mutex
	treeNodes     map[string]models.CategoryNode
	treeFetchedAt time.Time
	// channelDisabled is set for the process lifetime after a structural
	// failure of the authoritative channel.
	channelDisabled bool

	now func() time.Time
}

func NewTaxonomyResolver(cfg config.TaxonomyConfig, tree TreeProvider, logger *logrus.Logger) *TaxonomyResolver {
	if cfg.MaxNewPerRequest <= 0 {
		cfg.MaxNewPerRequest = 5
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 10
	}
	return &TaxonomyResolver{
		cfg:     cfg,
		tree:    tree,
		logger:  logger,
		entries: make(map[string]models.CategoryEntry),
		now:     time.Now,
	}
}

// ResolveCategories resolves up to the configured cap of eligible ids and
// returns the current entries for every requested id that has one.
// sampleTitles provides one representative product title per id for the
// keyword-inference strategy. Failures degrade to leaving entries
// unresolved; they never abort the caller's request.
func (r *TaxonomyResolver) ResolveCategories(ctx context.Context, ids []string, sampleTitles map[string]string) map[string]models.CategoryEntry {
	eligible := r.eligibleIDs(ids)

	r.logger.WithFields(logrus.Fields{
		"mode":           r.cfg.Mode,
		"missing_before": len(eligible),
	}).Info("Resolving category ids")

	if r.cfg.Mode != "none" {
		if len(eligible) > r.cfg.MaxNewPerRequest {
			eligible = eligible[:r.cfg.MaxNewPerRequest]
		}
		for _, id := range eligible {
			r.resolveOne(ctx, id, sampleTitles[id])
		}
	}

	return r.snapshot(ids)
}

// EnrichCompetitors resolves the category ids present in competitors and
// stamps each item with its resolved name, path and confidence.
func (r *TaxonomyResolver) EnrichCompetitors(ctx context.Context, competitors []models.Competitor) []models.Competitor {
	ids := make([]string, 0, len(competitors))
	titles := make(map[string]string, len(competitors))
	seen := make(map[string]bool, len(competitors))
	for _, item := range competitors {
		id := strings.TrimSpace(item.CategoryID)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
		titles[id] = item.ProductTitle
	}

	entries := r.ResolveCategories(ctx, ids, titles)

	for i := range competitors {
		entry, ok := entries[strings.TrimSpace(competitors[i].CategoryID)]
		if !ok {
			competitors[i].Confidence = models.ConfidenceUnknown
			continue
		}
		competitors[i].CategoryName = entry.MacroCategory
		competitors[i].CategoryPath = entry.MacroPath
		competitors[i].Confidence = entry.Confidence
	}
	return competitors
}

// eligibleIDs returns the ids that are new or due for re-resolution.
// api_verified entries are never eligible.
func (r *TaxonomyResolver) eligibleIDs(ids []string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var eligible []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		entry, ok := r.entries[id]
		if !ok {
			eligible = append(eligible, id)
			continue
		}
		if entry.Confidence == models.ConfidenceAPIVerified {
			continue
		}
		if r.now().Sub(entry.UpdatedAt) >= r.cfg.RescrapeInterval {
			eligible = append(eligible, id)
		}
	}
	return eligible
}

// resolveOne applies the configured strategy to a single id.
func (r *TaxonomyResolver) resolveOne(ctx context.Context, id, title string) {
	labels := Tokenize(title)
	if len(labels) > maxLabels {
		labels = labels[:maxLabels]
	}

	switch r.cfg.Mode {
	case "api":
		if name, path, ok := r.lookupAuthoritative(ctx, id); ok {
			r.store(id, name, path, labels, models.ConfidenceAPIVerified)
			return
		}
		if !r.authoritativeAvailable() {
			// Channel disabled for the process lifetime: keyword inference
			// is the only remaining strategy.
			r.inferAndStore(id, title, labels)
		}
	case "hybrid":
		if r.inferAndStore(id, title, labels) {
			return
		}
		if name, path, ok := r.lookupAuthoritative(ctx, id); ok {
			r.store(id, name, path, labels, models.ConfidenceAPIVerified)
		}
	}
}

// inferAndStore runs keyword inference and writes the entry. Returns true
// when a taxonomy row matched.
func (r *TaxonomyResolver) inferAndStore(id, title string, labels []string) bool {
	name, path := InferMacroCategory(title)
	confidence := models.ConfidenceInferred
	if name == "" {
		confidence = models.ConfidenceUnknown
	}
	r.store(id, name, path, labels, confidence)
	return name != ""
}

func (r *TaxonomyResolver) store(id, name, path string, labels []string, confidence models.Confidence) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// An api_verified entry is written at most once.
	if existing, ok := r.entries[id]; ok && existing.Confidence == models.ConfidenceAPIVerified {
		return
	}
	r.entries[id] = models.CategoryEntry{
		ID:            id,
		MacroCategory: name,
		MacroPath:     path,
		Labels:        labels,
		UpdatedAt:     r.now(),
		Confidence:    confidence,
	}
}

func (r *TaxonomyResolver) snapshot(ids []string) map[string]models.CategoryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]models.CategoryEntry, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if entry, ok := r.entries[id]; ok {
			out[id] = entry
		}
	}
	return out
}

func (r *TaxonomyResolver) authoritativeAvailable() bool {
	r.treeMu.Lock()
	defer r.treeMu.Unlock()
	return !r.channelDisabled && r.tree != nil
}

// lookupAuthoritative resolves id against the cached authoritative tree,
// fetching the tree when the cached copy expired. A structural failure of
// the channel disables it permanently.
func (r *TaxonomyResolver) lookupAuthoritative(ctx context.Context, id string) (name, path string, ok bool) {
	r.treeMu.Lock()
	defer r.treeMu.Unlock()

	if r.channelDisabled || r.tree == nil {
		return "", "", false
	}

	if r.treeNodes == nil || r.now().Sub(r.treeFetchedAt) >= r.cfg.TreeTTL {
		nodes, err := r.tree.FetchCategoryTree(ctx)
		if err != nil {
			if r.tree.IsStructuralError(err) {
				r.channelDisabled = true
				r.logger.WithError(err).Warn("Authoritative category channel unavailable, disabling for process lifetime")
			} else {
				r.logger.WithError(err).Warn("Failed to fetch authoritative category tree")
			}
			return "", "", false
		}
		r.treeNodes = make(map[string]models.CategoryNode, len(nodes))
		for _, node := range nodes {
			r.treeNodes[node.ID] = node
		}
		r.treeFetchedAt = r.now()
	}

	node, found := r.treeNodes[id]
	if !found {
		return "", "", false
	}

	// Walk parent pointers to the root, bounded by max depth and a visited
	// set to guard against cycles.
	segments := []string{node.Name}
	visited := map[string]bool{node.ID: true}
	current := node
	for depth := 0; depth < r.cfg.MaxDepth; depth++ {
		if current.ParentID == "" || current.ParentID == "0" {
			break
		}
		parent, found := r.treeNodes[current.ParentID]
		if !found || visited[parent.ID] {
			break
		}
		visited[parent.ID] = true
		segments = append([]string{parent.Name}, segments...)
		current = parent
	}

	return node.Name, strings.Join(segments, " > "), true
}

// InferMacroCategory matches a product title against the fixed taxonomy
// table. The first matching entry wins. Returns empty strings when nothing
// matches.
func InferMacroCategory(title string) (name, path string) {
	folded := foldAccents(strings.ToLower(title))
	for _, row := range macroTaxonomy {
		for _, keyword := range row.Keywords {
			if strings.Contains(folded, foldAccents(keyword)) {
				parts := strings.Split(row.Path, " > ")
				return parts[len(parts)-1], row.Path
			}
		}
	}
	return "", ""
}

// Tokenize lowercases, strips accents and splits a title into significant
// tokens (length > 2, stopwords removed).
func Tokenize(title string) []string {
	folded := foldAccents(strings.ToLower(title))
	raw := tokenPattern.FindAllString(folded, -1)

	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if len(tok) > 2 && !stopwords[tok] {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldAccents strips combining marks so "óptica" matches "optica".
func foldAccents(s string) string {
	folded, _, err := transform.String(accentFolder, s)
	if err != nil {
		return s
	}
	return folded
}

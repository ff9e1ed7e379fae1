// Package hub resolves free-text user input to configured Innovation Hub
// cities and serves the static hub master data document.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"github.com/hubtab/TABAgent/internal/genai"
)

// Resolver matches free text against the configured hub city list. Keyword
// containment on normalized names is tried first; an LLM-assisted match is
// the fallback so synonyms like "Blr" or "Bangalore" still resolve.
type Resolver struct {
	cities     []string
	normalized map[string]string // normalized name -> original city
	client     genai.ClientInterface
}

// NewResolver creates a resolver over the configured city list. The GenAI
// client is optional; without it only keyword matching is performed.
func NewResolver(cities []string, client genai.ClientInterface) *Resolver {
	r := &Resolver{client: client, normalized: make(map[string]string)}
	for _, city := range cities {
		city = strings.TrimSpace(city)
		if city == "" {
			continue
		}
		norm := Normalize(city)
		if norm == "" {
			continue
		}
		r.cities = append(r.cities, city)
		r.normalized[norm] = city
	}
	slog.Debug("hub.NewResolver: resolver created", "cityCount", len(r.cities), "hasGenAI", client != nil)
	return r
}

// Normalize strips everything but alphanumerics and lowercases, so
// "New Delhi" and "NEWDELHI" compare equal.
func Normalize(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// Cities returns the configured hub cities in sorted order for display.
func (r *Resolver) Cities() []string {
	out := make([]string, len(r.cities))
	copy(out, r.cities)
	sort.Strings(out)
	return out
}

// Resolve matches free text to a configured hub city. The boolean is false
// when no city could be determined.
func (r *Resolver) Resolve(ctx context.Context, freeText string) (string, bool) {
	if city, ok := r.MatchKeyword(freeText); ok {
		slog.Debug("hub.Resolve: keyword match", "city", city)
		return city, true
	}
	if r.client == nil {
		return "", false
	}
	city, ok := r.matchWithLLM(ctx, freeText)
	if ok {
		slog.Info("hub.Resolve: LLM-assisted match", "city", city)
	}
	return city, ok
}

// MatchKeyword matches free text against the configured city names without
// involving the LLM, for callers that screen every inbound message.
func (r *Resolver) MatchKeyword(freeText string) (string, bool) {
	normalizedMessage := Normalize(freeText)
	if normalizedMessage == "" {
		return "", false
	}
	for norm, city := range r.normalized {
		if strings.Contains(normalizedMessage, norm) {
			return city, true
		}
	}
	return "", false
}

const cityValidationPromptFmt = `You are a city validation assistant. Based on the user input identify the match from the list of valid Innovation Hub location cities: %s. Return a JSON response in the format {"city": "matched_city_name"} or {"city": null} if no match. Use your knowledge of the cities to validate the user input, even if the user provides synonyms for the city names.`

func (r *Resolver) matchWithLLM(ctx context.Context, freeText string) (string, bool) {
	systemPrompt := fmt.Sprintf(cityValidationPromptFmt, strings.Join(r.cities, ", "))
	response, err := r.client.GeneratePromptWithContext(ctx, systemPrompt, freeText)
	if err != nil {
		slog.Error("hub.matchWithLLM: validation call failed", "error", err)
		return "", false
	}

	var parsed struct {
		City *string `json:"city"`
	}
	// Models sometimes fence the JSON; strip common wrappers before parsing.
	cleaned := strings.TrimSpace(response)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	if err := json.Unmarshal([]byte(strings.TrimSpace(cleaned)), &parsed); err != nil {
		slog.Debug("hub.matchWithLLM: unparseable validation response", "error", err)
		return "", false
	}
	if parsed.City == nil || *parsed.City == "" {
		return "", false
	}

	// Accept only cities actually on the configured list.
	if city, ok := r.normalized[Normalize(*parsed.City)]; ok {
		return city, true
	}
	slog.Debug("hub.matchWithLLM: model returned unconfigured city", "city", *parsed.City)
	return "", false
}

// llm-stub is an offline OpenAI-compatible chat completions server for
// end-to-end testing without API keys. It answers every prompt with a canned
// SOMAS-shaped analysis and a Perplexity-style citations array.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

const cannedAnalysis = `FRAMING
Das Video rahmt das Thema als Konflikt zwischen Fortschritt und Kontrolle [1].

KERNTHESE: Die zentrale Behauptung ist, dass Regulierung der Innovation folgt, nicht umgekehrt [1].

ELABORATION
Der Sprecher belegt die These mit drei Beispielen und zitiert den [Bericht](https://www.example.org/bericht) ausführlich. Weitere Details unter https://www.example.com/studie.

KRITIK
Es fehlen Gegenstimmen; die Auswahl der Quellen ist einseitig [2].

ANSCHLUSSFRAGE
Welche Rolle spielen unabhängige Prüfinstanzen?`

var cannedCitations = []string{
	"https://www.timesofisrael.com/some-article",
	"https://www.cnn.com/other-article",
}

func main() {
	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "stub-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8082"
	}

	mux := http.NewServeMux()
	handleModels := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"id": model, "object": "model", "name": "Stub Model", "context_length": 128000},
			},
		})
	}
	mux.HandleFunc("/models", handleModels)
	mux.HandleFunc("/v1/models", handleModels)

	handleChat := func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if len(req.Messages) == 0 {
			http.Error(w, "no messages", http.StatusBadRequest)
			return
		}
		prompt := req.Messages[len(req.Messages)-1].Content
		log.Printf("chat completion: model=%s prompt=%d chars", req.Model, len(prompt))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": req.Model,
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": cannedAnalysis}},
			},
			"usage":     map[string]int{"total_tokens": 384},
			"citations": cannedCitations,
		})
	}
	mux.HandleFunc("/chat/completions", handleChat)
	mux.HandleFunc("/v1/chat/completions", handleChat)

	log.Printf("llm-stub listening on %s (model=%s)", addr, model)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal(err)
	}
}

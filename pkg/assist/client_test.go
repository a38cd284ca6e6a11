package assist

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/opsdeck/opsdeck/pkg/access"
	"github.com/opsdeck/opsdeck/pkg/errclass"
)

// newTestClient wires a client against a stub Gemini endpoint that replies
// with the given text.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		APIKey:  "test-key",
		BaseURL: srv.URL,
	}, Deps{})
}

func replyWith(text string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]string{{"text": text}},
				}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func TestGeneratePlaybookStripsCodeFence(t *testing.T) {
	c := newTestClient(t, replyWith("```yaml\n- name: Install nginx\n  hosts: web\n```"))

	got, err := c.GeneratePlaybook(context.Background(), access.RoleOperator, "install nginx")
	if err != nil {
		t.Fatalf("GeneratePlaybook() error = %v", err)
	}
	if want := "- name: Install nginx\n  hosts: web"; got != want {
		t.Errorf("GeneratePlaybook() = %q, want %q", got, want)
	}
}

func TestGeneratePlaybookPermissionDenied(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := c.GeneratePlaybook(context.Background(), access.RoleDeveloper, "install nginx")
	if !errclass.IsPermissionDenied(err) {
		t.Fatalf("expected permission denied for developer, got %v", err)
	}
	if called {
		t.Error("denied generation must not reach the collaborator")
	}
}

func TestGeneratePlaybookSendsRequirement(t *testing.T) {
	var gotBody generateRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Error("missing API key header")
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		replyWith("ok")(w, r)
	})

	if _, err := c.GeneratePlaybook(context.Background(), access.RoleAdmin, "configure firewalld"); err != nil {
		t.Fatalf("GeneratePlaybook() error = %v", err)
	}

	if len(gotBody.Contents) != 1 || len(gotBody.Contents[0].Parts) != 1 {
		t.Fatalf("unexpected request shape: %+v", gotBody)
	}
	prompt := gotBody.Contents[0].Parts[0].Text
	if !strings.Contains(prompt, "Requirement: configure firewalld") {
		t.Errorf("prompt missing requirement, got:\n%s", prompt)
	}
}

func TestAnalyzePlaybookEmbedsContent(t *testing.T) {
	var prompt string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		prompt = req.Contents[0].Parts[0].Text
		replyWith("## Overall Purpose\nChecks the environment.")(w, r)
	})

	got, err := c.AnalyzePlaybook(context.Background(), "- hosts: all\n  tasks: []")
	if err != nil {
		t.Fatalf("AnalyzePlaybook() error = %v", err)
	}
	if !strings.Contains(got, "Overall Purpose") {
		t.Errorf("unexpected analysis text %q", got)
	}
	if !strings.Contains(prompt, "- hosts: all") {
		t.Errorf("prompt missing playbook content:\n%s", prompt)
	}
}

func TestCompareResultsEmbedsBothLogs(t *testing.T) {
	var prompt string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		prompt = req.Contents[0].Parts[0].Text
		replyWith("The logs differ in JAVA_HOME.")(w, r)
	})

	if _, err := c.CompareResults(context.Background(), "log alpha", "log beta"); err != nil {
		t.Fatalf("CompareResults() error = %v", err)
	}
	if !strings.Contains(prompt, "log alpha") || !strings.Contains(prompt, "log beta") {
		t.Errorf("prompt missing execution logs:\n%s", prompt)
	}
}

func TestCallUpstreamFailures(t *testing.T) {
	t.Run("http error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		})
		_, err := c.AnalyzePlaybook(context.Background(), "x")
		if !errclass.IsUpstreamFailure(err) {
			t.Errorf("expected upstream failure, got %v", err)
		}
	})

	t.Run("no candidates", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"candidates":[]}`))
		})
		_, err := c.AnalyzePlaybook(context.Background(), "x")
		if !errclass.IsUpstreamFailure(err) {
			t.Errorf("expected upstream failure, got %v", err)
		}
	})

	t.Run("missing api key", func(t *testing.T) {
		c := NewClient(Config{}, Deps{})
		_, err := c.AnalyzePlaybook(context.Background(), "x")
		if !errclass.IsUpstreamFailure(err) {
			t.Errorf("expected upstream failure, got %v", err)
		}
	})
}

func TestPlaceholder(t *testing.T) {
	tests := []struct {
		operation string
		want      string
	}{
		{OpGenerate, "Error: Could not generate playbook."},
		{OpAnalyze, "Error: Could not analyze playbook."},
		{OpCompare, "Error: Could not compare results."},
	}
	for _, tt := range tests {
		if got := Placeholder(tt.operation); got != tt.want {
			t.Errorf("Placeholder(%s) = %q, want %q", tt.operation, got, tt.want)
		}
	}
}

func TestCleanYAML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"yaml fence", "```yaml\n- hosts: all\n```", "- hosts: all"},
		{"bare fence", "```\n- hosts: all\n```", "- hosts: all"},
		{"no fence", "- hosts: all", "- hosts: all"},
		{"surrounding whitespace", "\n  - hosts: all \n", "- hosts: all"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanYAML(tt.in); got != tt.want {
				t.Errorf("cleanYAML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

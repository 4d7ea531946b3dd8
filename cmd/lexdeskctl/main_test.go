package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"lexdesk/internal/middleware"
	"lexdesk/internal/models"
)

const petitionYAML = `name: Procuração
category: Cível
body: |
  {{nome_workspace}}: {{outorgante}}, CPF {{cpf}}, nomeia {{advogado}}.
  Nº {{numero_sequencial}} por {{usuario_atual}}. {{observacao}}
fields:
  - label: Outorgante
    required: true
  - key: cpf
    label: CPF
    type: cpf
    required: true
  - key: advogado
    default: Dr. Silva
  - key: honorarios
    type: currency
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "development")
	t.Setenv("WORKSPACE_NAME", "Silva Advogados")
	t.Setenv("APP_TIMEZONE", "UTC")
}

func runCmd(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestLoadTemplate(t *testing.T) {
	tmpl, err := loadTemplate(writeFile(t, "t.yaml", petitionYAML))
	if err != nil {
		t.Fatalf("loadTemplate: %v", err)
	}
	if tmpl.Name != "Procuração" || tmpl.ID != uuid.Nil {
		t.Errorf("template = %q id %s", tmpl.Name, tmpl.ID)
	}
	var keys []string
	for _, f := range tmpl.Fields {
		keys = append(keys, f.Key)
	}
	if diff := cmp.Diff([]string{"outorgante", "cpf", "advogado", "honorarios"}, keys); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}
	if tmpl.Fields[0].Type != models.FieldTypeText {
		t.Errorf("type should default to text, got %q", tmpl.Fields[0].Type)
	}
}

func TestLoadTemplateRejectsReservedKey(t *testing.T) {
	path := writeFile(t, "bad.yaml", "name: x\nbody: hi\nfields:\n  - key: data_hoje\n")
	if _, err := loadTemplate(path); err == nil {
		t.Error("expected an error for a reserved key")
	}
}

func TestScan(t *testing.T) {
	setupEnv(t)
	stdout, _, err := runCmd(t, "scan", writeFile(t, "t.yaml", petitionYAML))
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	var report scanReport
	if err := yaml.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("scan output is not YAML: %v\n%s", err, stdout)
	}
	if diff := cmp.Diff([]string{"observacao"}, report.Orphans); diff != "" {
		t.Errorf("orphans (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"nome_workspace", "numero_sequencial", "usuario_atual"}, report.System); diff != "" {
		t.Errorf("system (-want +got):\n%s", diff)
	}
	for _, f := range report.Fields {
		if f.Key == "honorarios" && f.Used {
			t.Error("honorarios does not appear in the body")
		}
	}
}

func TestPreviewShowsMarkers(t *testing.T) {
	setupEnv(t)
	stdout, stderr, err := runCmd(t, "preview", writeFile(t, "t.yaml", petitionYAML), "--user", "Ana")
	if err != nil {
		t.Fatalf("preview should not fail on missing data: %v", err)
	}
	for _, want := range []string{"[[MISSING: Outorgante]]", "[[UNDEFINED: observacao]]", "Dr. Silva", "Nº 1 por Ana"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("preview output missing %q:\n%s", want, stdout)
		}
	}
	if !strings.Contains(stderr, "outorgante") {
		t.Errorf("validation errors should be reported on stderr, got %q", stderr)
	}
}

func TestRender(t *testing.T) {
	setupEnv(t)
	tmpl := writeFile(t, "t.yaml", petitionYAML)
	data := writeFile(t, "data.json", `{"outorgante": "Maria Souza", "cpf": "12345678909"}`)

	stdout, _, err := runCmd(t, "render", tmpl, "--data", data, "--sequence", "7", "--user", "Ana")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "Silva Advogados: Maria Souza, CPF 123.456.789-09, nomeia Dr. Silva.\nNº 7 por Ana. [observacao]\n"
	if stdout != want+"\n" {
		t.Errorf("render output:\n%q\nwant\n%q", stdout, want+"\n")
	}
}

func TestRenderToFile(t *testing.T) {
	setupEnv(t)
	tmpl := writeFile(t, "t.yaml", petitionYAML)
	data := writeFile(t, "data.json", `{"outorgante": "Maria Souza", "cpf": "12345678909"}`)
	out := filepath.Join(t.TempDir(), "doc.md")

	if _, _, err := runCmd(t, "render", tmpl, "--data", data, "-o", out); err != nil {
		t.Fatalf("render: %v", err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(got), "Silva Advogados: Maria Souza") {
		t.Errorf("document = %q", got)
	}
}

func TestRenderFailsOnInvalidData(t *testing.T) {
	setupEnv(t)
	tmpl := writeFile(t, "t.yaml", petitionYAML)
	data := writeFile(t, "data.json", `{"outorgante": "Maria", "cpf": "123"}`)

	stdout, stderr, err := runCmd(t, "render", tmpl, "--data", data)
	if !errors.Is(err, errInvalidData) {
		t.Fatalf("expected errInvalidData, got %v", err)
	}
	if stdout != "" {
		t.Errorf("nothing should be rendered, got %q", stdout)
	}
	if !strings.Contains(stderr, "cpf") {
		t.Errorf("stderr should name the invalid field: %q", stderr)
	}
}

func TestRetry(t *testing.T) {
	id := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/executions/"+id.String()+"/retry" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get(middleware.HeaderUserID) != "ops" {
			t.Errorf("user header = %q", r.Header.Get(middleware.HeaderUserID))
		}
		json.NewEncoder(w).Encode(models.ExecutionRecord{ID: id, WebhookStatus: models.WebhookStatusCompleted, RetryCount: 2})
	}))
	defer srv.Close()

	stdout, _, err := runCmd(t, "retry", id.String(), "--api", srv.URL, "--user", "ops")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if want := "execution " + id.String() + ": completed (retry 2)\n"; stdout != want {
		t.Errorf("output = %q, want %q", stdout, want)
	}
}

func TestRetryConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":{"code":"conflict","message":"cannot retry delivery in state completed"}}`))
	}))
	defer srv.Close()

	_, _, err := runCmd(t, "retry", uuid.NewString(), "--api", srv.URL)
	if err == nil || !strings.Contains(err.Error(), "cannot retry delivery in state completed") {
		t.Errorf("expected server message in error, got %v", err)
	}

	if _, _, err := runCmd(t, "retry", "not-a-uuid", "--api", srv.URL); err == nil {
		t.Error("expected an error for an invalid id")
	}
}

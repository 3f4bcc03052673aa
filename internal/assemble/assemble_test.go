package assemble

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ppiankov/docguard/internal/model"
)

// memResolver serves documents from a map, keyed by path.
type memResolver struct {
	docs map[string]string
}

func (m *memResolver) Resolve(_ context.Context, path string) (Resolution, error) {
	if _, ok := m.docs[path]; !ok {
		return Resolution{}, nil
	}
	return Resolution{Exists: true, Location: path}, nil
}

func (m *memResolver) Read(_ context.Context, location string) (string, error) {
	return m.docs[location], nil
}

// captureSink records emitted security events.
type captureSink struct {
	events []model.SecurityEvent
}

func (c *captureSink) Emit(e model.SecurityEvent) { c.events = append(c.events, e) }

func doc(sensitivity string, contexts ...string) string {
	var b strings.Builder
	b.WriteString("---\nsensitivity: " + sensitivity + "\n")
	if len(contexts) > 0 {
		b.WriteString("context_documents:\n")
		for _, c := range contexts {
			b.WriteString("  - " + c + "\n")
		}
	}
	b.WriteString("---\nbody text\n")
	return b.String()
}

func TestSensitivityMonotonicity(t *testing.T) {
	levels := []string{"public", "internal", "confidential", "restricted"}

	for pi, primary := range levels {
		for ci, ctxLevel := range levels {
			name := fmt.Sprintf("%s_primary_%s_context", primary, ctxLevel)
			t.Run(name, func(t *testing.T) {
				r := &memResolver{docs: map[string]string{
					"primary.md": doc(primary, "ctx.md"),
					"ctx.md":     doc(ctxLevel),
				}}
				a := New(r, nil)

				result, err := a.Assemble(context.Background(), "primary.md", Options{})
				if err != nil {
					t.Fatalf("assemble: %v", err)
				}

				wantAdmit := ci <= pi
				gotAdmit := len(result.AdmittedContextDocuments) == 1
				if gotAdmit != wantAdmit {
					t.Errorf("admit(%s, %s) = %v, want %v (rejections: %+v)",
						primary, ctxLevel, gotAdmit, wantAdmit, result.RejectedContexts)
				}
				if !wantAdmit {
					if len(result.RejectedContexts) != 1 {
						t.Fatalf("expected 1 rejection, got %+v", result.RejectedContexts)
					}
					reason := result.RejectedContexts[0].Reason
					if !strings.Contains(reason, primary) || !strings.Contains(reason, ctxLevel) {
						t.Errorf("rejection reason must name both levels: %q", reason)
					}
				}
			})
		}
	}
}

func TestHierarchyRejectionEmitsAuditEvent(t *testing.T) {
	r := &memResolver{docs: map[string]string{
		"pub.md":  doc("public", "conf.md"),
		"conf.md": doc("confidential"),
	}}
	sink := &captureSink{}
	a := New(r, sink)

	_, err := a.Assemble(context.Background(), "pub.md", Options{RequestingIdentity: "svc-digest"})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	if len(sink.events) != 1 {
		t.Fatalf("expected 1 security event, got %d", len(sink.events))
	}
	ev := sink.events[0]
	if ev.EventType != model.EventSensitivityRejection {
		t.Errorf("event type = %s", ev.EventType)
	}
	if ev.RequestingIdentity != "svc-digest" {
		t.Errorf("event must name the requester, got %q", ev.RequestingIdentity)
	}
	if ev.Severity != model.SeverityHigh {
		t.Errorf("severity = %s", ev.Severity)
	}
}

func TestPrimaryNotFound(t *testing.T) {
	a := New(&memResolver{docs: map[string]string{}}, nil)

	_, err := a.Assemble(context.Background(), "missing.md", Options{})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Path != "missing.md" {
		t.Errorf("error path = %q", nf.Path)
	}
}

func TestContextNotFoundIsSoftRejection(t *testing.T) {
	r := &memResolver{docs: map[string]string{
		"primary.md": doc("internal", "gone.md", "here.md"),
		"here.md":    doc("public"),
	}}
	a := New(r, nil)

	result, err := a.Assemble(context.Background(), "primary.md", Options{})
	if err != nil {
		t.Fatalf("a missing context document must not fail the call: %v", err)
	}
	if len(result.AdmittedContextDocuments) != 1 {
		t.Errorf("expected 1 admitted, got %d", len(result.AdmittedContextDocuments))
	}
	if len(result.RejectedContexts) != 1 || result.RejectedContexts[0].Reason != "not found" {
		t.Errorf("expected 'not found' rejection, got %+v", result.RejectedContexts)
	}
}

func TestCircularReference(t *testing.T) {
	r := &memResolver{docs: map[string]string{
		"self.md": doc("internal", "self.md"),
	}}
	a := New(r, nil)

	result, err := a.Assemble(context.Background(), "self.md", Options{})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(result.RejectedContexts) != 1 || result.RejectedContexts[0].Reason != "circular reference" {
		t.Fatalf("expected circular reference rejection, got %+v", result.RejectedContexts)
	}

	// Explicitly allowing circular references admits the self-reference.
	result, err = a.Assemble(context.Background(), "self.md", Options{AllowCircularReferences: true})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(result.AdmittedContextDocuments) != 1 {
		t.Errorf("expected self-reference admitted, got %+v", result.RejectedContexts)
	}
}

func TestDuplicateContextIsCircular(t *testing.T) {
	r := &memResolver{docs: map[string]string{
		"primary.md": doc("internal", "a.md", "a.md"),
		"a.md":       doc("public"),
	}}
	a := New(r, nil)

	result, err := a.Assemble(context.Background(), "primary.md", Options{})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(result.AdmittedContextDocuments) != 1 {
		t.Errorf("first reference should be admitted, got %d", len(result.AdmittedContextDocuments))
	}
	if len(result.RejectedContexts) != 1 || result.RejectedContexts[0].Reason != "circular reference" {
		t.Errorf("duplicate should be rejected as circular, got %+v", result.RejectedContexts)
	}
}

func TestContextCapTruncates(t *testing.T) {
	docs := map[string]string{}
	var refs []string
	for i := 0; i < 5; i++ {
		p := fmt.Sprintf("ctx%d.md", i)
		docs[p] = doc("public")
		refs = append(refs, p)
	}
	docs["primary.md"] = doc("internal", refs...)
	a := New(&memResolver{docs: docs}, nil)

	result, err := a.Assemble(context.Background(), "primary.md", Options{MaxContextDocuments: 3})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(result.AdmittedContextDocuments) != 3 {
		t.Errorf("expected 3 admitted after truncation, got %d", len(result.AdmittedContextDocuments))
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "2 excess") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a single warning naming the excess count, got %v", result.Warnings)
	}
}

func TestNegativeContextCapUsesDefault(t *testing.T) {
	r := &memResolver{docs: map[string]string{
		"primary.md": doc("internal", "ctx.md"),
		"ctx.md":     doc("public"),
	}}
	a := New(r, nil)

	result, err := a.Assemble(context.Background(), "primary.md", Options{MaxContextDocuments: -1})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(result.AdmittedContextDocuments) != 1 {
		t.Errorf("expected 1 admitted under the default cap, got %d", len(result.AdmittedContextDocuments))
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
}

func TestDeclarationOrderPreserved(t *testing.T) {
	docs := map[string]string{
		"primary.md": doc("restricted", "b.md", "a.md", "c.md"),
		"a.md":       doc("public"),
		"b.md":       doc("internal"),
		"c.md":       doc("confidential"),
	}
	a := New(&memResolver{docs: docs}, nil)

	result, err := a.Assemble(context.Background(), "primary.md", Options{})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	want := []string{"b.md", "a.md", "c.md"}
	if len(result.AdmittedContextDocuments) != len(want) {
		t.Fatalf("expected %d admitted, got %+v", len(want), result.RejectedContexts)
	}
	for i, w := range want {
		if result.AdmittedContextDocuments[i].Path != w {
			t.Errorf("position %d: got %s, want %s (reporting must follow declaration order)",
				i, result.AdmittedContextDocuments[i].Path, w)
		}
	}
}

func TestMissingMetadataDefaultsSilently(t *testing.T) {
	r := &memResolver{docs: map[string]string{
		"bare.md": "no metadata block at all\n",
	}}
	a := New(r, nil)

	result, err := a.Assemble(context.Background(), "bare.md", Options{})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if result.PrimaryDocument.Sensitivity != model.SensInternal {
		t.Errorf("missing metadata should default to internal, got %s", result.PrimaryDocument.Sensitivity)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("the default must be silent, got warnings %v", result.Warnings)
	}
}

func TestStrictMetadataFailsClosed(t *testing.T) {
	r := &memResolver{docs: map[string]string{
		"bare.md": "no metadata block at all\n",
	}}
	a := New(r, nil)

	_, err := a.Assemble(context.Background(), "bare.md", Options{StrictMetadata: true})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestInvalidSensitivityWarnsOrFails(t *testing.T) {
	r := &memResolver{docs: map[string]string{
		"bad.md": "---\nsensitivity: ultra\n---\nbody\n",
	}}
	a := New(r, nil)

	result, err := a.Assemble(context.Background(), "bad.md", Options{})
	if err != nil {
		t.Fatalf("invalid enum outside strict mode must not fail: %v", err)
	}
	if len(result.Warnings) == 0 {
		t.Error("expected a validation warning")
	}
	if result.PrimaryDocument.Sensitivity != model.SensInternal {
		t.Errorf("invalid enum should default to internal, got %s", result.PrimaryDocument.Sensitivity)
	}

	_, err = a.Assemble(context.Background(), "bad.md", Options{FailOnValidationError: true})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError with FailOnValidationError, got %v", err)
	}
}

func TestCaseSensitiveEnum(t *testing.T) {
	r := &memResolver{docs: map[string]string{
		"caps.md": "---\nsensitivity: Public\n---\nbody\n",
	}}
	a := New(r, nil)

	result, err := a.Assemble(context.Background(), "caps.md", Options{})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	// Matching is case-sensitive: "Public" is invalid, not public.
	if result.PrimaryDocument.Sensitivity != model.SensInternal {
		t.Errorf("expected default internal for %q, got %s", "Public", result.PrimaryDocument.Sensitivity)
	}
}

package vault

import (
	"errors"
	"testing"

	"github.com/starford/gebo/internal/apperr"
)

func tempVault(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	v, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return v
}

func TestWriteAndRead(t *testing.T) {
	v := tempVault(t)
	content := []byte("# Hello\nWorld\n")
	if err := v.Write("doc.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := v.Read("doc.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestReadDocument(t *testing.T) {
	v := tempVault(t)
	_ = v.Write("doc.md", []byte("---\nid: obj-1\nspace_id: sp-1\n---\nbody\n"))
	doc, err := v.ReadDocument("doc.md")
	if err != nil {
		t.Fatalf("ReadDocument: %v", err)
	}
	id, space := doc.ObjectID()
	if id != "obj-1" || space != "sp-1" {
		t.Errorf("identity = %q, %q", id, space)
	}
	if !doc.Synced() {
		t.Error("document with both headers should report synced")
	}
	if doc.Body != "body\n" {
		t.Errorf("body = %q", doc.Body)
	}
}

func TestCreate_RefusesOverwrite(t *testing.T) {
	v := tempVault(t)
	if err := v.Create("doc.md", []byte("one")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := v.Create("doc.md", []byte("two"))
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestMoveAndExists(t *testing.T) {
	v := tempVault(t)
	_ = v.Write("old.md", []byte("data"))
	if err := v.Move("old.md", "sub/new.md"); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if v.Exists("old.md") {
		t.Error("old path should be gone")
	}
	if !v.Exists("sub/new.md") {
		t.Error("new path should exist")
	}
}

func TestList(t *testing.T) {
	v := tempVault(t)
	_ = v.Write("a.md", []byte("a"))
	_ = v.Write("sub/b.md", []byte("b"))
	_ = v.Write("skip.txt", []byte("x"))
	infos, err := v.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("len = %d, want 2", len(infos))
	}
	for _, fi := range infos {
		if fi.Checksum == "" {
			t.Errorf("missing checksum for %s", fi.Path)
		}
	}
}

func TestSafePath_RejectsTraversal(t *testing.T) {
	v := tempVault(t)
	if _, err := v.Read("../outside.md"); err == nil {
		t.Error("traversal should be rejected")
	}
	if _, err := v.Read("/etc/passwd"); err == nil {
		t.Error("absolute path should be rejected")
	}
}

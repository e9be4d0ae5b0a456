package retrieval

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LoadDir reads every .md and .txt file under dir as a Document titled by its file name.
func LoadDir(dir string) ([]Document, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, nil
	}
	return LoadFS(os.DirFS(dir))
}

// LoadFS is LoadDir over an fs.FS.
func LoadFS(fsys fs.FS) ([]Document, error) {
	var docs []Document
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".md" && ext != ".txt" {
			return nil
		}
		raw, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("retrieval: read %s: %w", path, err)
		}
		content := strings.TrimSpace(string(raw))
		if content == "" {
			return nil
		}
		docs = append(docs, Document{
			Title:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			Content: content,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Title < docs[j].Title })
	return docs, nil
}

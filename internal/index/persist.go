package index

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"legalrag/internal/domain"
)

// Persist writes the index to dir. Artifacts go to a sibling temp directory
// first and are swapped into place, so readers never observe a partial index.
func Persist(ix *Index, dir string) error {
	if ix == nil || ix.Len() == 0 {
		return errors.New("no entries to persist")
	}
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("cannot create index parent %s: %w", parent, err)
	}
	tmp, err := os.MkdirTemp(parent, filepath.Base(dir)+".tmp-*")
	if err != nil {
		return fmt.Errorf("cannot create temp index dir: %w", err)
	}
	// MkdirTemp creates 0700; the index is shared with other service accounts
	if err := os.Chmod(tmp, 0o755); err != nil {
		_ = os.RemoveAll(tmp)
		return fmt.Errorf("cannot chmod temp index dir: %w", err)
	}
	if err := write(tmp, ix); err != nil {
		_ = os.RemoveAll(tmp)
		return err
	}
	if err := replaceDir(tmp, dir); err != nil {
		_ = os.RemoveAll(tmp)
		return fmt.Errorf("cannot swap index into %s: %w", dir, err)
	}
	return nil
}

func write(dir string, ix *Index) error {
	m := ix.manifest
	entries := ix.Entries()
	m.Count = len(entries)
	if m.VectorFile == "" {
		m.VectorFile = defaultVectorFile
	}
	if m.RecordsFile == "" {
		m.RecordsFile = defaultRecordsFile
	}

	// manifest
	mb, err := jsonIndent(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, manifestFile), mb, 0o644); err != nil {
		return fmt.Errorf("cannot write manifest: %w", err)
	}

	// records jsonl
	rf, err := os.Create(filepath.Join(dir, m.RecordsFile))
	if err != nil {
		return fmt.Errorf("cannot create records file: %w", err)
	}
	bw := bufio.NewWriter(rf)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for _, e := range entries {
		if err := enc.Encode(recordLine{ID: e.ID, ArticleRecord: e.Record}); err != nil {
			_ = rf.Close()
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		_ = rf.Close()
		return err
	}
	if err := rf.Sync(); err != nil {
		_ = rf.Close()
		return err
	}
	if err := rf.Close(); err != nil {
		return err
	}

	// vectors
	flat := make([]float32, 0, len(entries)*m.Dim)
	for _, e := range entries {
		flat = append(flat, e.Vector...)
	}
	vf, err := os.Create(filepath.Join(dir, m.VectorFile))
	if err != nil {
		return fmt.Errorf("cannot create vectors file: %w", err)
	}
	if err := binary.Write(vf, binary.LittleEndian, flat); err != nil {
		_ = vf.Close()
		return fmt.Errorf("cannot write vectors: %w", err)
	}
	if err := vf.Sync(); err != nil {
		_ = vf.Close()
		return err
	}
	return vf.Close()
}

// Exists reports whether dir holds a manifest.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, manifestFile))
	return err == nil
}

// Load reads an index from dir. Unreadable or inconsistent artifacts, an
// unknown format version, or a model other than expectedModel yield
// domain.ErrCorruptIndex. An empty expectedModel skips the model check.
func Load(dir, expectedModel string) (*Index, error) {
	corrupt := func(msg string, err error) error {
		return domain.E(domain.KindCorruptIndex, "index load", msg, err)
	}

	manifestPath := filepath.Join(dir, manifestFile)
	b, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, corrupt("cannot read manifest "+manifestPath, err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, corrupt("invalid manifest JSON "+manifestPath, err)
	}
	if m.FormatVersion != FormatVersion {
		return nil, corrupt(fmt.Sprintf("format version %d, want %d", m.FormatVersion, FormatVersion), nil)
	}
	if expectedModel != "" && m.ModelID != expectedModel {
		return nil, corrupt(fmt.Sprintf("index built with model %q, configured model is %q", m.ModelID, expectedModel), nil)
	}
	if m.Dim <= 0 || m.Count <= 0 {
		return nil, corrupt(fmt.Sprintf("invalid dim %d or count %d in manifest", m.Dim, m.Count), nil)
	}
	if m.VectorFile == "" {
		m.VectorFile = defaultVectorFile
	}
	if m.RecordsFile == "" {
		m.RecordsFile = defaultRecordsFile
	}

	lines, err := loadRecords(filepath.Join(dir, m.RecordsFile))
	if err != nil {
		return nil, corrupt("", err)
	}
	if len(lines) != m.Count {
		return nil, corrupt(fmt.Sprintf("records count %d, manifest says %d", len(lines), m.Count), nil)
	}
	flat, err := loadVectors(filepath.Join(dir, m.VectorFile), m.Count, m.Dim)
	if err != nil {
		return nil, corrupt("", err)
	}

	entries := make([]Entry, len(lines))
	for i, l := range lines {
		entries[i] = Entry{ID: l.ID, Record: l.ArticleRecord, Vector: flat[i*m.Dim : (i+1)*m.Dim]}
	}
	ix, err := newIndex(m, entries)
	if err != nil {
		return nil, corrupt("", err)
	}
	return ix, nil
}

func loadRecords(path string) ([]recordLine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open records file %s: %w", path, err)
	}
	defer f.Close()

	var out []recordLine
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var r recordLine
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, fmt.Errorf("invalid records JSONL %s: %w", path, err)
		}
		out = append(out, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read records file %s: %w", path, err)
	}
	return out, nil
}

func loadVectors(path string, count, dim int) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open vector file %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("cannot stat vector file %s: %w", path, err)
	}
	expected := int64(count) * int64(dim) * 4
	if expected != st.Size() {
		return nil, fmt.Errorf("vector file size mismatch: got %d want %d (count=%d dim=%d)", st.Size(), expected, count, dim)
	}
	out := make([]float32, count*dim)
	if err := binary.Read(io.LimitReader(f, expected), binary.LittleEndian, out); err != nil {
		return nil, fmt.Errorf("cannot read vectors from %s: %w", path, err)
	}
	return out, nil
}

// replaceDir moves src to dst. An existing dst is parked at dst+".bak"
// until src is in place and restored if the final rename fails.
func replaceDir(src, dst string) error {
	parked := dst + ".bak"
	if err := os.RemoveAll(parked); err != nil {
		return err
	}
	hadOld := false
	switch _, err := os.Stat(dst); {
	case err == nil:
		if err := os.Rename(dst, parked); err != nil {
			return fmt.Errorf("park %s: %w", dst, err)
		}
		hadOld = true
	case !errors.Is(err, os.ErrNotExist):
		return err
	}

	if err := os.Rename(src, dst); err != nil {
		if !hadOld {
			return err
		}
		if rerr := os.Rename(parked, dst); rerr != nil {
			return errors.Join(err, fmt.Errorf("restore previous index from %s: %w", parked, rerr))
		}
		return err
	}
	if hadOld {
		_ = os.RemoveAll(parked)
	}
	return nil
}

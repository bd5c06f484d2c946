package bundle_test

import (
	"archive/tar"
	"bytes"
	"testing"
	"time"

	"github.com/ipfs/go-cid"

	"xdao.co/ldcs/custody"
	"xdao.co/ldcs/docid"
	"xdao.co/ldcs/manifest"
	"xdao.co/ldcs/vault"
	"xdao.co/ldcs/vault/bundle"
	"xdao.co/ldcs/vault/localfs"
)

func TestBundle_ExportIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	store, err := localfs.New(dir)
	if err != nil {
		t.Fatal(err)
	}

	id1, err := store.Put([]byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	id2, err := store.Put([]byte("world"))
	if err != nil {
		t.Fatal(err)
	}

	var outA bytes.Buffer
	if err := bundle.Export(&outA, store, []cid.Cid{id2, id1}, bundle.ExportOptions{IncludeIndex: true}); err != nil {
		t.Fatal(err)
	}
	var outB bytes.Buffer
	if err := bundle.Export(&outB, store, []cid.Cid{id1, id2}, bundle.ExportOptions{IncludeIndex: true}); err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(outA.Bytes(), outB.Bytes()) {
		t.Fatalf("expected deterministic bundle bytes")
	}
}

func TestBundle_ImportRoundTrip(t *testing.T) {
	srcDir := t.TempDir()
	src, err := localfs.New(srcDir)
	if err != nil {
		t.Fatal(err)
	}

	payload := []byte("payload")
	id, err := src.Put(payload)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := bundle.Export(&buf, src, []cid.Cid{id}, bundle.ExportOptions{IncludeIndex: true}); err != nil {
		t.Fatal(err)
	}

	dstDir := t.TempDir()
	dst, err := localfs.New(dstDir)
	if err != nil {
		t.Fatal(err)
	}

	if err := bundle.Import(bytes.NewReader(buf.Bytes()), dst); err != nil {
		t.Fatal(err)
	}

	got, err := dst.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestBundle_ShardEvidenceRoundTrip(t *testing.T) {
	svc, err := custody.NewService(custody.Quaternion, "xdao")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		svc.AddHolder([]byte{0xA0 + byte(i)}, 1000, 100)
	}
	sharded, err := svc.ShardDocument([]byte("confidential custody payload"), 100)
	if err != nil {
		t.Fatal(err)
	}

	src := vault.NewMemory()
	var ids []cid.Cid
	dataCIDs := make([]string, len(sharded.Shards))
	for i, s := range sharded.Shards {
		id, perr := src.Put(s.Data)
		if perr != nil {
			t.Fatal(perr)
		}
		ids = append(ids, id)
		dataCIDs[i] = id.String()
	}
	manifestBytes, err := manifest.Render(sharded, dataCIDs, manifest.RenderOptions{
		SealedAt: time.Unix(1700000000, 0),
	})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	err = bundle.Export(&buf, src, ids, bundle.ExportOptions{
		Manifests:    map[string][]byte{"shards.manifest": manifestBytes},
		IncludeIndex: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	dst := vault.NewMemory()
	if err := bundle.Import(bytes.NewReader(buf.Bytes()), dst); err != nil {
		t.Fatal(err)
	}
	for i, id := range ids {
		got, gerr := dst.Get(id)
		if gerr != nil {
			t.Fatalf("shard %d: %v", i, gerr)
		}
		if !bytes.Equal(got, sharded.Shards[i].Data) {
			t.Fatalf("shard %d payload mismatch", i)
		}
	}
}

func TestBundle_ImportRejectsCIDMismatch(t *testing.T) {
	good := []byte("good")
	goodCID, err := docid.CIDv1RawSHA256CID(good)
	if err != nil {
		t.Fatal(err)
	}
	otherCID, err := docid.CIDv1RawSHA256CID([]byte("other"))
	if err != nil {
		t.Fatal(err)
	}
	if goodCID.String() == otherCID.String() {
		t.Fatal("expected different CIDs")
	}

	// Name says "otherCID" but bytes are "good" => computed CID mismatch.
	bundleBytes := makeDeterministicTar(t, "blocks/"+otherCID.String(), good)

	dst := vault.NewMemory()
	if err := bundle.Import(bytes.NewReader(bundleBytes), dst); err != vault.ErrCIDMismatch {
		t.Fatalf("expected ErrCIDMismatch, got %v", err)
	}
}

func TestBundle_ImportRejectsUnknownEntry(t *testing.T) {
	bundleBytes := makeDeterministicTar(t, "extras/notes.txt", []byte("x"))

	dst := vault.NewMemory()
	if err := bundle.Import(bytes.NewReader(bundleBytes), dst); err == nil {
		t.Fatal("expected error for unknown entry")
	}
	if err := bundle.ImportWithOptions(bytes.NewReader(bundleBytes), dst, bundle.ImportOptions{IgnoreUnknown: true}); err != nil {
		t.Fatalf("IgnoreUnknown: %v", err)
	}
}

func makeDeterministicTar(t *testing.T, name string, content []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	h := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		Uid:      0,
		Gid:      0,
		Uname:    "",
		Gname:    "",
		ModTime:  time.Unix(0, 0).UTC(),
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(h); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

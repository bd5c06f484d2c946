package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"xdao.co/ldcs/acl"
	"xdao.co/ldcs/apdl"
	"xdao.co/ldcs/custody"
	"xdao.co/ldcs/docid"
	"xdao.co/ldcs/keys"
	"xdao.co/ldcs/manifest"
	"xdao.co/ldcs/signer"
	"xdao.co/ldcs/sss"
	"xdao.co/ldcs/vault"
	"xdao.co/ldcs/vault/bundle"
	"xdao.co/ldcs/vault/vaultregistry"

	_ "xdao.co/ldcs/vault/grpcvault"
	_ "xdao.co/ldcs/vault/localfs"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "access":
		return cmdAccess(args[1:], out, errOut)
	case "bundle":
		return cmdBundle(args[1:], out, errOut)
	case "doc-cid":
		return cmdDocCID(args[1:], out, errOut)
	case "key":
		return cmdKey(args[1:], out, errOut)
	case "manifest":
		return cmdManifest(args[1:], out, errOut)
	case "policy":
		return cmdPolicy(args[1:], out, errOut)
	case "reconstruct":
		return cmdReconstruct(args[1:], out, errOut)
	case "seal":
		return cmdSeal(args[1:], out, errOut)
	case "shard":
		return cmdShard(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "xdao-ldcs: layered document custody CLI")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  xdao-ldcs policy validate <apdl-file>")
	fmt.Fprintln(w, "  xdao-ldcs policy render <apdl-file>")
	fmt.Fprintln(w, "  xdao-ldcs seal --in <file> --policy <apdl-file> [--out-dir <dir>] [--store --backend <name> ...]")
	fmt.Fprintln(w, "  xdao-ldcs access --blob <tier0-file> --policy <apdl-file> --tier <n> [--key <b64> ...] [--out <file>]")
	fmt.Fprintln(w, "  xdao-ldcs shard --in <file> --type <name> --height <n> --custodian <addrhex>=<balance> ... [--coin <c>] [--splitter offset|gf256] [--store --backend <name> ...]")
	fmt.Fprintln(w, "  xdao-ldcs reconstruct --manifest <file> --backend <name> --custodian <addrhex>=<balance> ... [--out <file>]")
	fmt.Fprintln(w, "  xdao-ldcs bundle export --out <file> --cid <cid> ... [--manifest <file>] [--backend <name> ...]")
	fmt.Fprintln(w, "  xdao-ldcs bundle import --in <file> [--ignore-unknown] [--backend <name> ...]")
	fmt.Fprintln(w, "  xdao-ldcs manifest cid <file>")
	fmt.Fprintln(w, "  xdao-ldcs manifest verify <file>")
	fmt.Fprintln(w, "  xdao-ldcs doc-cid <file>")
	fmt.Fprintln(w, "  xdao-ldcs key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  xdao-ldcs key derive --from <name> --tier <tier> [--force]")
	fmt.Fprintln(w, "  xdao-ldcs key cipher --name <name> --tier <tier>")
	fmt.Fprintln(w, "  xdao-ldcs key list")
	fmt.Fprintln(w, "  xdao-ldcs key export --name <name> [--tier <tier>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - --seed-hex must be 32 bytes (64 hex chars) ed25519 seed")
	fmt.Fprintln(w, "  - KMS-lite stores keys under ~/.xdao/ldcs/keys/<name> (0600 private key files)")
	fmt.Fprintln(w, "  - seal prints one CID per tier blob; tier 0 is the outermost blob")
	fmt.Fprintln(w, "  - access peels masks positionally: --key order is tier 1, tier 2, ...")
	fmt.Fprintln(w, "  - shard prints a canonical manifest to stdout; payloads go to the vault")
}

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func cmdPolicy(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: xdao-ldcs policy <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: validate, render")
		return 2
	}
	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("policy validate", flag.ContinueOnError)
		fs.SetOutput(errOut)
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(errOut, "usage: xdao-ldcs policy validate <apdl-file>")
			return 2
		}
		b, err := os.ReadFile(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(errOut, "read policy: %v\n", err)
			return 1
		}
		policy, err := apdl.Parse(b)
		if err != nil {
			fmt.Fprintf(errOut, "invalid policy: %v\n", err)
			return 1
		}
		hierarchy, err := policy.ToACL()
		if err != nil {
			fmt.Fprintf(errOut, "invalid policy: %v\n", err)
			return 1
		}
		fmt.Fprintf(out, "OK: %d tiers (tier 0 public)\n", hierarchy.LayerCount())
		return 0
	case "render":
		fs := flag.NewFlagSet("policy render", flag.ContinueOnError)
		fs.SetOutput(errOut)
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(errOut, "usage: xdao-ldcs policy render <apdl-file>")
			return 2
		}
		b, err := os.ReadFile(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(errOut, "read policy: %v\n", err)
			return 1
		}
		policy, err := apdl.Parse(b)
		if err != nil {
			fmt.Fprintf(errOut, "invalid policy: %v\n", err)
			return 1
		}
		_, _ = out.Write(apdl.Render(policy))
		return 0
	default:
		fmt.Fprintf(errOut, "unknown policy subcommand: %s\n", args[0])
		return 2
	}
}

func cmdDocCID(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("doc-cid", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: xdao-ldcs doc-cid <file>")
		return 2
	}
	path := fs.Arg(0)
	b, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", filepath.Base(path), err)
		return 1
	}
	_, _ = fmt.Fprintln(out, docid.CIDv1RawSHA256(b))
	return 0
}

func cmdSeal(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("seal", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var inPath string
	var policyPath string
	var outDir string
	var store bool
	var backend string
	fs.StringVar(&inPath, "in", "", "Plaintext file to seal")
	fs.StringVar(&policyPath, "policy", "", "APDL policy file")
	fs.StringVar(&outDir, "out-dir", "", "Write tier blobs as tier-<n>.bin under this directory")
	fs.BoolVar(&store, "store", false, "Store tier blobs in a vault backend")
	fs.StringVar(&backend, "backend", "localfs", "Vault backend name (with --store)")
	vaultregistry.RegisterFlags(fs, vaultregistry.UsageCLI)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if inPath == "" || policyPath == "" {
		fmt.Fprintln(errOut, "usage: xdao-ldcs seal --in <file> --policy <apdl-file> [--out-dir <dir>] [--store --backend <name> ...]")
		return 2
	}

	plaintext, err := os.ReadFile(inPath)
	if err != nil {
		fmt.Fprintf(errOut, "read --in: %v\n", err)
		return 1
	}
	policyBytes, err := os.ReadFile(policyPath)
	if err != nil {
		fmt.Fprintf(errOut, "read --policy: %v\n", err)
		return 1
	}
	policy, err := apdl.Parse(policyBytes)
	if err != nil {
		fmt.Fprintf(errOut, "invalid policy: %v\n", err)
		return 1
	}
	hierarchy, err := policy.ToACL()
	if err != nil {
		fmt.Fprintf(errOut, "invalid policy: %v\n", err)
		return 1
	}

	doc := acl.NewDocument(plaintext, hierarchy)
	for i := range doc.Nested.Layers {
		if !doc.VerifyLayer(i) {
			fmt.Fprintf(errOut, "witness verification failed for tier %d\n", i)
			return 1
		}
	}

	var vs vault.Store
	var closeFn func() error
	if store {
		vs, closeFn, err = vaultregistry.Open(backend, vaultregistry.UsageCLI)
		if err != nil {
			fmt.Fprintf(errOut, "open backend: %v\n", err)
			return 2
		}
		if closeFn != nil {
			defer func() { _ = closeFn() }()
		}
	}

	id := docid.FoldDigest(plaintext)
	fmt.Fprintf(errOut, "Document-ID: %s\n", hex.EncodeToString(id[:]))
	for i, blob := range doc.Nested.Layers {
		cidStr := docid.CIDv1RawSHA256(blob)
		fmt.Fprintf(out, "Tier-%d-CID: %s\n", i, cidStr)
		if outDir != "" {
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				fmt.Fprintf(errOut, "mkdir --out-dir: %v\n", err)
				return 1
			}
			name := filepath.Join(outDir, "tier-"+strconv.Itoa(i)+".bin")
			if err := os.WriteFile(name, blob, 0o644); err != nil {
				fmt.Fprintf(errOut, "write %s: %v\n", name, err)
				return 1
			}
		}
		if vs != nil {
			if _, err := vs.Put(blob); err != nil {
				fmt.Fprintf(errOut, "store tier %d: %v\n", i, err)
				return 1
			}
		}
	}
	return 0
}

func cmdAccess(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("access", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var blobPath string
	var policyPath string
	var tier int
	var outPath string
	var keyList stringList
	fs.StringVar(&blobPath, "blob", "", "Outermost (tier 0) blob file")
	fs.StringVar(&policyPath, "policy", "", "APDL policy file")
	fs.IntVar(&tier, "tier", 0, "Target tier index")
	fs.StringVar(&outPath, "out", "", "Write recovered bytes to file instead of stdout")
	fs.Var(&keyList, "key", "Tier key, base64, positional starting at tier 1 (repeatable)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if blobPath == "" || policyPath == "" {
		fmt.Fprintln(errOut, "usage: xdao-ldcs access --blob <tier0-file> --policy <apdl-file> --tier <n> [--key <b64> ...] [--out <file>]")
		return 2
	}

	blob, err := os.ReadFile(blobPath)
	if err != nil {
		fmt.Fprintf(errOut, "read --blob: %v\n", err)
		return 1
	}
	policyBytes, err := os.ReadFile(policyPath)
	if err != nil {
		fmt.Fprintf(errOut, "read --policy: %v\n", err)
		return 1
	}
	policy, err := apdl.Parse(policyBytes)
	if err != nil {
		fmt.Fprintf(errOut, "invalid policy: %v\n", err)
		return 1
	}
	hierarchy, err := policy.ToACL()
	if err != nil {
		fmt.Fprintf(errOut, "invalid policy: %v\n", err)
		return 1
	}

	// Index 0 is the Public tier placeholder; presented keys are positional
	// from tier 1 upward.
	presented := [][]byte{nil}
	for _, k := range keyList {
		raw, derr := base64.StdEncoding.DecodeString(k)
		if derr != nil {
			fmt.Fprintf(errOut, "invalid --key: %v\n", derr)
			return 2
		}
		presented = append(presented, raw)
	}

	if !hierarchy.CanAccess(tier, presented) {
		fmt.Fprintf(errOut, "access denied for tier %d\n", tier)
		return 1
	}

	// Only the outermost blob is needed to peel down to the target tier.
	layers := make([][]byte, hierarchy.LayerCount())
	layers[0] = blob
	nested := &acl.NestedCipher{Layers: layers}
	recovered, ok := nested.DecryptToLayer(tier, presented)
	if !ok {
		fmt.Fprintf(errOut, "not enough keys to reach tier %d\n", tier)
		return 1
	}

	if outPath != "" {
		if err := os.WriteFile(outPath, recovered, 0o644); err != nil {
			fmt.Fprintf(errOut, "write --out: %v\n", err)
			return 1
		}
		return 0
	}
	_, _ = out.Write(recovered)
	return 0
}

// parseCustodian parses "<addrhex>=<balance>".
func parseCustodian(s string) ([]byte, uint64, error) {
	addrHex, balStr, ok := strings.Cut(s, "=")
	if !ok {
		return nil, 0, fmt.Errorf("expected <addrhex>=<balance>, got %q", s)
	}
	addr, err := hex.DecodeString(addrHex)
	if err != nil || len(addr) == 0 {
		return nil, 0, fmt.Errorf("invalid custodian address %q", addrHex)
	}
	bal, err := strconv.ParseUint(balStr, 10, 64)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid custodian balance %q", balStr)
	}
	return addr, bal, nil
}

func cmdShard(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("shard", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var inPath string
	var typeName string
	var height uint64
	var coin string
	var splitterName string
	var custodians stringList
	var foldSign bool
	var store bool
	var backend string
	var seedHex string
	var signerName string
	var sealedAt string
	fs.StringVar(&inPath, "in", "", "Document file to shard")
	fs.StringVar(&typeName, "type", "octonion", "Data type (boolean, quaternion, octonion, mathieu-m24, genetic, rdfa, ipv6, byte, monster)")
	fs.Uint64Var(&height, "height", 0, "Block height for custodian ranking")
	fs.StringVar(&coin, "coin", "xdao", "Coin type")
	fs.StringVar(&splitterName, "splitter", "offset", "Splitter scheme: offset or gf256")
	fs.Var(&custodians, "custodian", "Custodian as <addrhex>=<balance> (repeatable)")
	fs.BoolVar(&foldSign, "fold-sign", true, "Fold-sign each shard on behalf of its holder")
	fs.BoolVar(&store, "store", false, "Store shard payloads in a vault backend")
	fs.StringVar(&backend, "backend", "localfs", "Vault backend name (with --store)")
	fs.StringVar(&seedHex, "seed-hex", "", "Optional ed25519 seed to sign the manifest")
	fs.StringVar(&signerName, "signer", "", "Optional stored key name to sign the manifest")
	fs.StringVar(&sealedAt, "sealed-at", "", "Optional RFC3339 timestamp for the manifest META (omit for deterministic output)")
	vaultregistry.RegisterFlags(fs, vaultregistry.UsageCLI)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if inPath == "" {
		fmt.Fprintln(errOut, "missing --in")
		return 2
	}
	if len(custodians) == 0 {
		fmt.Fprintln(errOut, "missing --custodian")
		return 2
	}
	dataType, ok := custody.ParseDataType(typeName)
	if !ok {
		fmt.Fprintf(errOut, "unknown --type %q\n", typeName)
		return 2
	}

	document, err := os.ReadFile(inPath)
	if err != nil {
		fmt.Fprintf(errOut, "read --in: %v\n", err)
		return 1
	}

	svc, err := custody.NewService(dataType, coin)
	if err != nil {
		fmt.Fprintf(errOut, "custody: %v\n", err)
		return 2
	}
	split, serr := sss.ByName(splitterName, dataType.ShardCount(), dataType.ShardCount())
	if serr != nil {
		fmt.Fprintf(errOut, "invalid --splitter: %v\n", serr)
		return 2
	}
	if svc, err = svc.WithSplitter(split); err != nil {
		fmt.Fprintf(errOut, "splitter: %v\n", err)
		return 2
	}

	for _, c := range custodians {
		addr, bal, cerr := parseCustodian(c)
		if cerr != nil {
			fmt.Fprintf(errOut, "invalid --custodian: %v\n", cerr)
			return 2
		}
		svc.AddHolder(addr, bal, height)
	}

	sharded, err := svc.ShardDocument(document, height)
	if err != nil {
		fmt.Fprintf(errOut, "shard: %v\n", err)
		return 1
	}
	if foldSign {
		for i := range sharded.Shards {
			s := &sharded.Shards[i]
			s.Signature = signer.FoldSign(s.Data, s.HolderAddress)
		}
	}

	var vs vault.Store
	if store {
		var closeFn func() error
		vs, closeFn, err = vaultregistry.Open(backend, vaultregistry.UsageCLI)
		if err != nil {
			fmt.Fprintf(errOut, "open backend: %v\n", err)
			return 2
		}
		if closeFn != nil {
			defer func() { _ = closeFn() }()
		}
	}

	dataCIDs := make([]string, len(sharded.Shards))
	for i, s := range sharded.Shards {
		dataCIDs[i] = manifest.DataCIDFor(s.Data)
		if vs != nil {
			if _, err := vs.Put(s.Data); err != nil {
				fmt.Fprintf(errOut, "store shard %d: %v\n", s.ShardID, err)
				return 1
			}
		}
	}

	opts := manifest.RenderOptions{Splitter: splitterName}
	if sealedAt != "" {
		ts, terr := time.Parse(time.RFC3339, sealedAt)
		if terr != nil {
			fmt.Fprintf(errOut, "invalid --sealed-at: %v\n", terr)
			return 2
		}
		opts.SealedAt = ts
	}
	if seedHex != "" || signerName != "" {
		ks, kerr := keys.CreateKeyStore("")
		if kerr != nil {
			fmt.Fprintf(errOut, "keys: %v\n", kerr)
			return 1
		}
		seed, serr := ks.LoadSeed(seedHex, signerName, "", "")
		if serr != nil {
			fmt.Fprintf(errOut, "invalid signer: %v\n", serr)
			return 2
		}
		opts.SealerKey = keys.GenerateCustodianKeyFromSeed(seed)
		opts.PrivateKey = ed25519.NewKeyFromSeed(seed)
	}

	var manifestBytes []byte
	var manifestCID string
	if opts.SealerKey != "" {
		manifestBytes, manifestCID, err = manifest.RenderSignedWithCID(sharded, dataCIDs, opts)
	} else {
		manifestBytes, manifestCID, err = manifest.RenderWithCID(sharded, dataCIDs, opts)
	}
	if err != nil {
		fmt.Fprintf(errOut, "manifest: %v\n", err)
		return 1
	}

	fmt.Fprintf(errOut, "Document-ID: %s\n", hex.EncodeToString(sharded.DocumentID[:]))
	fmt.Fprintf(errOut, "Manifest-CID: %s\n", manifestCID)
	_, _ = out.Write(manifestBytes)
	return 0
}

func cmdReconstruct(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("reconstruct", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var manifestPath string
	var backend string
	var outPath string
	var custodians stringList
	fs.StringVar(&manifestPath, "manifest", "", "Shard manifest file")
	fs.StringVar(&backend, "backend", "localfs", "Vault backend name")
	fs.StringVar(&outPath, "out", "", "Write reconstructed bytes to file instead of stdout")
	fs.Var(&custodians, "custodian", "Custodian as <addrhex>=<balance> (repeatable)")
	vaultregistry.RegisterFlags(fs, vaultregistry.UsageCLI)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if manifestPath == "" {
		fmt.Fprintln(errOut, "missing --manifest")
		return 2
	}
	if len(custodians) == 0 {
		fmt.Fprintln(errOut, "missing --custodian")
		return 2
	}

	manifestBytes, err := os.ReadFile(manifestPath)
	if err != nil {
		fmt.Fprintf(errOut, "read --manifest: %v\n", err)
		return 1
	}
	m, err := manifest.Parse(manifestBytes)
	if err != nil {
		fmt.Fprintf(errOut, "invalid manifest: %v\n", err)
		return 1
	}

	vs, closeFn, err := vaultregistry.Open(backend, vaultregistry.UsageCLI)
	if err != nil {
		fmt.Fprintf(errOut, "open backend: %v\n", err)
		return 2
	}
	if closeFn != nil {
		defer func() { _ = closeFn() }()
	}

	svc, err := custody.NewService(m.DataType, m.CoinType)
	if err != nil {
		fmt.Fprintf(errOut, "custody: %v\n", err)
		return 2
	}
	// The manifest records which scheme produced the shards; reconstructing
	// with any other splitter yields wrong bytes without an error.
	split, serr := sss.ByName(m.Splitter, m.DataType.ShardCount(), m.DataType.ShardCount())
	if serr != nil {
		fmt.Fprintf(errOut, "manifest splitter: %v\n", serr)
		return 1
	}
	if svc, err = svc.WithSplitter(split); err != nil {
		fmt.Fprintf(errOut, "manifest splitter: %v\n", err)
		return 1
	}
	for _, c := range custodians {
		addr, bal, cerr := parseCustodian(c)
		if cerr != nil {
			fmt.Fprintf(errOut, "invalid --custodian: %v\n", cerr)
			return 2
		}
		svc.AddHolder(addr, bal, m.BlockHeight)
	}

	sharded := &custody.ShardedDocument{
		DocumentID:     m.DocumentID,
		DataType:       m.DataType,
		TotalShards:    m.TotalShards,
		RequiredShards: m.RequiredShards,
		BlockHeight:    m.BlockHeight,
		CoinType:       m.CoinType,
	}
	var collected []custody.DocumentShard
	for _, ref := range m.Shards {
		id, derr := cid.Decode(ref.DataCID)
		if derr != nil {
			fmt.Fprintf(errOut, "shard %d: invalid Data-CID: %v\n", ref.ShardID, derr)
			return 1
		}
		data, gerr := vs.Get(id)
		if gerr != nil {
			fmt.Fprintf(errOut, "shard %d: fetch payload: %v\n", ref.ShardID, gerr)
			return 1
		}
		shard := custody.DocumentShard{
			ShardID:       ref.ShardID,
			Data:          data,
			HolderAddress: ref.Holder,
			Signature:     ref.Signature,
			BlockHeight:   m.BlockHeight,
			CoinType:      m.CoinType,
			DataType:      m.DataType,
		}
		sharded.Shards = append(sharded.Shards, shard)
		collected = append(collected, shard)
	}

	document, err := svc.ReconstructDocument(sharded, collected)
	if err != nil {
		fmt.Fprintf(errOut, "reconstruct: %v\n", err)
		return 1
	}

	if outPath != "" {
		if err := os.WriteFile(outPath, document, 0o644); err != nil {
			fmt.Fprintf(errOut, "write --out: %v\n", err)
			return 1
		}
		return 0
	}
	_, _ = out.Write(document)
	return 0
}

func cmdBundle(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: xdao-ldcs bundle <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: export, import")
		return 2
	}
	switch args[0] {
	case "export":
		return cmdBundleExport(args[1:], out, errOut)
	case "import":
		return cmdBundleImport(args[1:], out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown bundle subcommand: %s\n", args[0])
		return 2
	}
}

func cmdBundleExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("bundle export", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var outPath string
	var backend string
	var manifestPath string
	var cidList stringList
	fs.StringVar(&outPath, "out", "", "Write bundle TAR to file (default stdout)")
	fs.StringVar(&backend, "backend", "localfs", "Vault backend name")
	fs.StringVar(&manifestPath, "manifest", "", "Optional shard manifest to embed (also selects its shard Data-CIDs)")
	fs.Var(&cidList, "cid", "Block CID to export (repeatable)")
	vaultregistry.RegisterFlags(fs, vaultregistry.UsageCLI)

	if err := fs.Parse(args); err != nil {
		return 2
	}

	var ids []cid.Cid
	for _, s := range cidList {
		id, derr := cid.Decode(s)
		if derr != nil {
			fmt.Fprintf(errOut, "invalid --cid %q: %v\n", s, derr)
			return 2
		}
		ids = append(ids, id)
	}

	opts := bundle.ExportOptions{IncludeIndex: true}
	if manifestPath != "" {
		manifestBytes, rerr := os.ReadFile(manifestPath)
		if rerr != nil {
			fmt.Fprintf(errOut, "read --manifest: %v\n", rerr)
			return 1
		}
		m, perr := manifest.Parse(manifestBytes)
		if perr != nil {
			fmt.Fprintf(errOut, "invalid manifest: %v\n", perr)
			return 1
		}
		for _, ref := range m.Shards {
			id, derr := cid.Decode(ref.DataCID)
			if derr != nil {
				fmt.Fprintf(errOut, "shard %d: invalid Data-CID: %v\n", ref.ShardID, derr)
				return 1
			}
			ids = append(ids, id)
		}
		opts.Manifests = map[string][]byte{filepath.Base(manifestPath): manifestBytes}
	}
	if len(ids) == 0 {
		fmt.Fprintln(errOut, "nothing to export: need --cid or --manifest")
		return 2
	}

	vs, closeFn, err := vaultregistry.Open(backend, vaultregistry.UsageCLI)
	if err != nil {
		fmt.Fprintf(errOut, "open backend: %v\n", err)
		return 2
	}
	if closeFn != nil {
		defer func() { _ = closeFn() }()
	}

	w := out
	if outPath != "" {
		f, ferr := os.Create(outPath)
		if ferr != nil {
			fmt.Fprintf(errOut, "create --out: %v\n", ferr)
			return 1
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	if err := bundle.Export(w, vs, ids, opts); err != nil {
		fmt.Fprintf(errOut, "export: %v\n", err)
		return 1
	}
	return 0
}

func cmdBundleImport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("bundle import", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var inPath string
	var backend string
	var ignoreUnknown bool
	fs.StringVar(&inPath, "in", "", "Bundle TAR file")
	fs.StringVar(&backend, "backend", "localfs", "Vault backend name")
	fs.BoolVar(&ignoreUnknown, "ignore-unknown", false, "Ignore unknown TAR entries instead of failing")
	vaultregistry.RegisterFlags(fs, vaultregistry.UsageCLI)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if inPath == "" {
		fmt.Fprintln(errOut, "missing --in")
		return 2
	}

	f, err := os.Open(inPath)
	if err != nil {
		fmt.Fprintf(errOut, "open --in: %v\n", err)
		return 1
	}
	defer func() { _ = f.Close() }()

	vs, closeFn, err := vaultregistry.Open(backend, vaultregistry.UsageCLI)
	if err != nil {
		fmt.Fprintf(errOut, "open backend: %v\n", err)
		return 2
	}
	if closeFn != nil {
		defer func() { _ = closeFn() }()
	}

	if err := bundle.ImportWithOptions(f, vs, bundle.ImportOptions{IgnoreUnknown: ignoreUnknown}); err != nil {
		fmt.Fprintf(errOut, "import: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, "OK")
	return 0
}

func cmdManifest(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: xdao-ldcs manifest <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: cid, verify")
		return 2
	}
	switch args[0] {
	case "cid":
		fs := flag.NewFlagSet("manifest cid", flag.ContinueOnError)
		fs.SetOutput(errOut)
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(errOut, "usage: xdao-ldcs manifest cid <file>")
			return 2
		}
		b, err := os.ReadFile(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(errOut, "read manifest: %v\n", err)
			return 1
		}
		id, err := manifest.CID(b)
		if err != nil {
			fmt.Fprintf(errOut, "invalid manifest: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintln(out, id)
		return 0
	case "verify":
		fs := flag.NewFlagSet("manifest verify", flag.ContinueOnError)
		fs.SetOutput(errOut)
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(errOut, "usage: xdao-ldcs manifest verify <file>")
			return 2
		}
		b, err := os.ReadFile(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(errOut, "read manifest: %v\n", err)
			return 1
		}
		signed, err := manifest.VerifySignature(b)
		if err != nil {
			fmt.Fprintf(errOut, "invalid: %v\n", err)
			return 1
		}
		if !signed {
			_, _ = fmt.Fprintln(out, "OK (unsigned)")
			return 0
		}
		_, _ = fmt.Fprintln(out, "OK (signed)")
		return 0
	default:
		fmt.Fprintf(errOut, "unknown manifest subcommand: %s\n", args[0])
		return 2
	}
}

func cmdKey(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printKeyUsage(errOut)
		return 2
	}
	switch args[0] {
	case "init":
		return cmdKeyInit(args[1:], out, errOut)
	case "cipher":
		return cmdKeyCipher(args[1:], out, errOut)
	case "derive":
		return cmdKeyDerive(args[1:], out, errOut)
	case "list":
		return cmdKeyList(args[1:], out, errOut)
	case "export":
		return cmdKeyExport(args[1:], out, errOut)
	case "help", "-h", "--help":
		printKeyUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown key subcommand: %s\n\n", args[0])
		printKeyUsage(errOut)
		return 2
	}
}

func printKeyUsage(w io.Writer) {
	fmt.Fprintln(w, "xdao-ldcs key: minimal local key management (KMS-lite)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  xdao-ldcs key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  xdao-ldcs key derive --from <name> --tier <tier> [--force]")
	fmt.Fprintln(w, "  xdao-ldcs key cipher --name <name> --tier <tier>")
	fmt.Fprintln(w, "  xdao-ldcs key list")
	fmt.Fprintln(w, "  xdao-ldcs key export --name <name> [--tier <tier>]")
}

func cmdKeyInit(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key init", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var seedHex string
	var force bool

	fs.StringVar(&name, "name", "", "Key name (directory under ~/.xdao/ldcs/keys)")
	fs.StringVar(&seedHex, "seed-hex", "", "Optional ed25519 seed as 64 hex chars (for reproducible demos)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}

	var seed []byte
	if seedHex != "" {
		var derr error
		seed, derr = keys.ParseSeedHex(seedHex)
		if derr != nil {
			fmt.Fprintf(errOut, "invalid --seed-hex: %v\n", derr)
			return 2
		}
	} else {
		seed = make([]byte, ed25519.SeedSize)
		if _, err := rand.Read(seed); err != nil {
			fmt.Fprintf(errOut, "rand: %v\n", err)
			return 1
		}
	}

	custodianKey, rootPath, err := ks.InitializeRootKey(name, seed, force)
	if err != nil {
		fmt.Fprintf(errOut, "write key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created root key: %s\n", custodianKey)
	fmt.Fprintf(out, "Stored at: %s\n", rootPath)
	return 0
}

func cmdKeyDerive(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key derive", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var from string
	var tier string
	var force bool

	fs.StringVar(&from, "from", "", "Root key name")
	fs.StringVar(&tier, "tier", "", "Tier identifier (e.g. authenticated, secret)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if from == "" {
		fmt.Fprintln(errOut, "missing --from")
		return 2
	}
	if tier == "" {
		fmt.Fprintln(errOut, "missing --tier")
		return 2
	}
	if err := keys.CheckKeyName(from); err != nil {
		fmt.Fprintf(errOut, "invalid --from: %v\n", err)
		return 2
	}
	if err := keys.CheckTier(tier); err != nil {
		fmt.Fprintf(errOut, "invalid --tier: %v\n", err)
		return 2
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	custodianKey, tierPath, err := ks.DeriveKeyForTier(from, tier, force)
	if err != nil {
		fmt.Fprintf(errOut, "derive tier key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created tier key: %s\n", custodianKey)
	fmt.Fprintf(out, "Stored at: %s\n", tierPath)
	return 0
}

func cmdKeyCipher(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key cipher", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var tier string

	fs.StringVar(&name, "name", "", "Root key name")
	fs.StringVar(&tier, "tier", "", "Tier identifier (e.g. authenticated, secret)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if tier == "" {
		fmt.Fprintln(errOut, "missing --tier")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}
	if err := keys.CheckTier(tier); err != nil {
		fmt.Fprintf(errOut, "invalid --tier: %v\n", err)
		return 2
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	seed, err := ks.LoadSeed("", name, "", "")
	if err != nil {
		fmt.Fprintf(errOut, "load key: %v\n", err)
		return 1
	}
	cipherKey, err := keys.DeriveTierCipherKey(seed, tier)
	if err != nil {
		fmt.Fprintf(errOut, "derive cipher key: %v\n", err)
		return 1
	}
	// Base64, ready for APDL Key:/Tier-Key: lines and access --key.
	_, _ = fmt.Fprintln(out, base64.StdEncoding.EncodeToString(cipherKey))
	return 0
}

func cmdKeyExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key export", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var tier string

	fs.StringVar(&name, "name", "", "Key name")
	fs.StringVar(&tier, "tier", "", "Optional tier (if set, exports derived tier key)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}
	if tier != "" {
		if err := keys.CheckTier(tier); err != nil {
			fmt.Fprintf(errOut, "invalid --tier: %v\n", err)
			return 2
		}
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	custodianKey, err := ks.ExportKey(name, tier)
	if err != nil {
		fmt.Fprintf(errOut, "export key: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, custodianKey)
	return 0
}

func cmdKeyList(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key list", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	entries, err := ks.ListKeys()
	if err != nil {
		fmt.Fprintf(errOut, "list keys: %v\n", err)
		return 1
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s\n", e.Identifier)
		for _, t := range e.Tiers {
			fmt.Fprintf(out, "  - %s\n", t)
		}
	}
	return 0
}

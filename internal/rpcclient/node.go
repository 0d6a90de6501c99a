package rpcclient

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Meridian-labs/meridian-wallet/internal/log"
	"github.com/Meridian-labs/meridian-wallet/internal/metadata"
	"github.com/Meridian-labs/meridian-wallet/internal/storage"
	"github.com/Meridian-labs/meridian-wallet/internal/storagekey"
	"github.com/Meridian-labs/meridian-wallet/pkg/scale"
)

// RPC method names: dot-joined module/method pairs.
const (
	methodGetRuntimeVersion = "state.getRuntimeVersion"
	methodGetMetadata       = "state.getMetadata"
	methodGetStorage        = "state.getStorage"
	methodSubmitExtrinsic   = "author.submitExtrinsic"
	methodQueryInfo         = "payment.queryInfo"
)

// ErrNotFound is returned when a metadata lookup misses: the chain's
// runtime simply does not declare the requested entry, call or constant.
var ErrNotFound = errors.New("rpcclient: not declared in runtime metadata")

const (
	// minCacheTTL is the floor for the response cache window.
	minCacheTTL = time.Second

	// fallbackBlockTime is assumed when the runtime declares no block time
	// constant.
	fallbackBlockTime = 6 * time.Second
)

// RuntimeVersion is the node-reported runtime identification.
type RuntimeVersion struct {
	SpecName           string `json:"specName"`
	ImplName           string `json:"implName"`
	SpecVersion        uint32 `json:"specVersion"`
	TransactionVersion uint32 `json:"transactionVersion"`
}

// runtimeState is the immutable product of one successful initialization.
// Replaced wholesale when the node reports a new spec version.
type runtimeState struct {
	runtime RuntimeVersion
	meta    *metadata.Metadata
	ttl     time.Duration
}

// NodeClient talks to a single chain node. Metadata and runtime version
// are fetched lazily on first use; the fetch is memoized as a single
// in-flight shared operation, and a failed initialization is retried from
// scratch on the next call rather than cached.
type NodeClient struct {
	rpc       *Client
	cache     *responseCache
	metaStore storage.DB
	blockTime time.Duration
	now       func() time.Time

	initGroup singleflight.Group
	mu        sync.Mutex
	state     *runtimeState
	lastCheck time.Time
}

// NodeOption configures a NodeClient.
type NodeOption func(*NodeClient)

// WithTimeout sets the HTTP timeout for individual RPCs.
func WithTimeout(timeout time.Duration) NodeOption {
	return func(n *NodeClient) { n.rpc.http.Timeout = timeout }
}

// WithMetadataStore persists fetched metadata blobs keyed by spec version,
// so a restart against an unchanged runtime skips the metadata RPC.
func WithMetadataStore(db storage.DB) NodeOption {
	return func(n *NodeClient) { n.metaStore = db }
}

// WithDefaultBlockTime overrides the block time assumed when the runtime
// declares none.
func WithDefaultBlockTime(d time.Duration) NodeOption {
	return func(n *NodeClient) { n.blockTime = d }
}

// NewNode creates a client for the given chain endpoint.
func NewNode(endpoint string, opts ...NodeOption) *NodeClient {
	n := &NodeClient{
		rpc:       NewClient(endpoint),
		cache:     newResponseCache(minCacheTTL),
		blockTime: fallbackBlockTime,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Metadata returns the decoded runtime metadata, initializing on first use.
func (n *NodeClient) Metadata(ctx context.Context) (*metadata.Metadata, error) {
	st, err := n.ensureInit(ctx)
	if err != nil {
		return nil, err
	}
	return st.meta, nil
}

// Runtime returns the node's runtime version, initializing on first use.
func (n *NodeClient) Runtime(ctx context.Context) (RuntimeVersion, error) {
	st, err := n.ensureInit(ctx)
	if err != nil {
		return RuntimeVersion{}, err
	}
	return st.runtime, nil
}

// GetStorage resolves the storage key for (module, entry, keys) and fetches
// the value. Absence is a valid, meaningful chain state (e.g. "not
// bonded"), so it is reported via the bool, not as an error.
func (n *NodeClient) GetStorage(ctx context.Context, module, entry string, keys ...[]byte) ([]byte, bool, error) {
	st, err := n.ensureInit(ctx)
	if err != nil {
		return nil, false, err
	}

	e, ok := st.meta.StorageEntry(module, entry)
	if !ok {
		return nil, false, fmt.Errorf("storage entry %s.%s: %w", module, entry, ErrNotFound)
	}
	key, err := storagekey.Resolve(e, keys...)
	if err != nil {
		return nil, false, err
	}

	raw, err := n.cachedCall(ctx, methodGetStorage, encodeHex(key))
	if err != nil {
		return nil, false, fmt.Errorf("get storage %s.%s: %w", module, entry, err)
	}
	if isNull(raw) {
		return nil, false, nil
	}

	var hexValue string
	if err := json.Unmarshal(raw, &hexValue); err != nil {
		return nil, false, fmt.Errorf("get storage %s.%s: %w", module, entry, err)
	}
	value, err := decodeHex(hexValue)
	if err != nil {
		return nil, false, fmt.Errorf("get storage %s.%s: %w", module, entry, err)
	}
	return value, true, nil
}

// GetConstant returns the raw SCALE-encoded value of a module constant.
func (n *NodeClient) GetConstant(ctx context.Context, module, name string) ([]byte, error) {
	st, err := n.ensureInit(ctx)
	if err != nil {
		return nil, err
	}
	c, ok := st.meta.Constant(module, name)
	if !ok {
		return nil, fmt.Errorf("constant %s.%s: %w", module, name, ErrNotFound)
	}
	value := make([]byte, len(c.Value))
	copy(value, c.Value)
	return value, nil
}

// GetCall returns the descriptor of a dispatchable call, used by
// transaction builders to assemble extrinsics.
func (n *NodeClient) GetCall(ctx context.Context, module, name string) (*metadata.Call, error) {
	st, err := n.ensureInit(ctx)
	if err != nil {
		return nil, err
	}
	c, ok := st.meta.Call(module, name)
	if !ok {
		return nil, fmt.Errorf("call %s.%s: %w", module, name, ErrNotFound)
	}
	return c, nil
}

// SubmitExtrinsic broadcasts an already-signed extrinsic and returns the
// node-reported transaction hash. Never cached.
func (n *NodeClient) SubmitExtrinsic(ctx context.Context, encoded []byte) (string, error) {
	raw, err := n.rpc.Raw(ctx, methodSubmitExtrinsic, encodeHex(encoded))
	if err != nil {
		return "", fmt.Errorf("submit extrinsic: %w", err)
	}
	var hash string
	if err := json.Unmarshal(raw, &hash); err != nil {
		return "", fmt.Errorf("submit extrinsic: %w", err)
	}
	log.RPC.Info().Str("hash", hash).Msg("extrinsic submitted")
	return hash, nil
}

// EstimateFee queries the node for the partial fee of an encoded
// transaction. Nodes without fee estimation report absence via the bool.
func (n *NodeClient) EstimateFee(ctx context.Context, encodedTx []byte) (*big.Int, bool, error) {
	raw, err := n.cachedCall(ctx, methodQueryInfo, encodeHex(encodedTx))
	if err != nil {
		return nil, false, fmt.Errorf("estimate fee: %w", err)
	}
	if isNull(raw) {
		return nil, false, nil
	}

	var info struct {
		PartialFee string `json:"partialFee"`
	}
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, false, fmt.Errorf("estimate fee: %w", err)
	}
	if info.PartialFee == "" {
		return nil, false, nil
	}
	fee, ok := new(big.Int).SetString(info.PartialFee, 10)
	if !ok {
		return nil, false, fmt.Errorf("estimate fee: malformed amount %q", info.PartialFee)
	}
	return fee, true, nil
}

// cachedCall routes a read-only RPC through the response cache.
func (n *NodeClient) cachedCall(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	key := cacheKey(method, params)
	// The shared fetch is detached from the first caller's cancellation so
	// it can complete for concurrent waiters.
	fetchCtx := context.WithoutCancel(ctx)
	return n.cache.do(ctx, key, func() (json.RawMessage, error) {
		return n.rpc.Raw(fetchCtx, method, params...)
	})
}

// ensureInit returns the current runtime state, initializing lazily. When
// the state is older than one cache window, the runtime version is
// re-checked and the metadata rebuilt if the node reports a new spec
// version.
func (n *NodeClient) ensureInit(ctx context.Context) (*runtimeState, error) {
	n.mu.Lock()
	st := n.state
	fresh := st != nil && n.now().Sub(n.lastCheck) < st.ttl
	n.mu.Unlock()
	if fresh {
		return st, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := n.initGroup.DoChan("init", func() (interface{}, error) {
		return n.initialize(fetchCtx)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*runtimeState), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (n *NodeClient) initialize(ctx context.Context) (*runtimeState, error) {
	var rv RuntimeVersion
	if err := n.rpc.Call(ctx, methodGetRuntimeVersion, nil, &rv); err != nil {
		return nil, fmt.Errorf("fetch runtime version: %w", err)
	}

	n.mu.Lock()
	st := n.state
	n.mu.Unlock()
	if st != nil && st.runtime.SpecVersion == rv.SpecVersion {
		n.mu.Lock()
		n.lastCheck = n.now()
		n.mu.Unlock()
		return st, nil
	}
	if st != nil {
		log.Meta.Info().
			Uint32("old", st.runtime.SpecVersion).
			Uint32("new", rv.SpecVersion).
			Msg("runtime upgraded, rebuilding metadata")
	}

	meta, err := n.loadMetadata(ctx, rv.SpecVersion)
	if err != nil {
		return nil, err
	}

	blockTime := blockTimeFromMetadata(meta, n.blockTime)
	ttl := blockTime / 3
	if ttl < minCacheTTL {
		ttl = minCacheTTL
	}
	n.cache.setTTL(ttl)

	st = &runtimeState{runtime: rv, meta: meta, ttl: ttl}
	n.mu.Lock()
	n.state = st
	n.lastCheck = n.now()
	n.mu.Unlock()

	log.Meta.Debug().
		Str("spec", rv.SpecName).
		Uint32("version", rv.SpecVersion).
		Uint8("metadata", meta.Version).
		Dur("cache_ttl", ttl).
		Msg("runtime initialized")
	return st, nil
}

// loadMetadata consults the optional on-disk store before hitting the node.
func (n *NodeClient) loadMetadata(ctx context.Context, specVersion uint32) (*metadata.Metadata, error) {
	var storeKey []byte
	if n.metaStore != nil {
		storeKey = []byte(fmt.Sprintf("meta:v%d", specVersion))
		if raw, err := n.metaStore.Get(storeKey); err == nil {
			md, err := metadata.Decode(raw)
			if err == nil {
				log.Storage.Debug().Uint32("spec_version", specVersion).Msg("metadata loaded from disk cache")
				return md, nil
			}
			// Corrupt cache entry: drop it and refetch.
			log.Storage.Warn().Err(err).Msg("discarding corrupt cached metadata")
			_ = n.metaStore.Delete(storeKey)
		}
	}

	var hexBlob string
	if err := n.rpc.Call(ctx, methodGetMetadata, nil, &hexBlob); err != nil {
		return nil, fmt.Errorf("fetch metadata: %w", err)
	}
	raw, err := decodeHex(hexBlob)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata: %w", err)
	}
	md, err := metadata.Decode(raw)
	if err != nil {
		return nil, err
	}

	if n.metaStore != nil {
		if err := n.metaStore.Put(storeKey, raw); err != nil {
			log.Storage.Warn().Err(err).Msg("failed to cache metadata on disk")
		}
	}
	return md, nil
}

// blockTimeFromMetadata reads the chain's expected block time from its
// runtime constants.
func blockTimeFromMetadata(md *metadata.Metadata, fallback time.Duration) time.Duration {
	if c, ok := md.Constant("Babe", "ExpectedBlockTime"); ok {
		if ms, _, err := scale.DecodeU64(c.Value, 0); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	// Aura-style chains: block time is twice the minimum timestamp period.
	if c, ok := md.Constant("Timestamp", "MinimumPeriod"); ok {
		if ms, _, err := scale.DecodeU64(c.Value, 0); err == nil && ms > 0 {
			return 2 * time.Duration(ms) * time.Millisecond
		}
	}
	return fallback
}

func encodeHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

func decodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, fmt.Errorf("malformed hex value: %w", err)
	}
	return b, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// meridian-cli is a command-line client for Substrate-family chains: wallet
// management, balance and delegation queries, and extrinsic submission.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/Meridian-labs/meridian-wallet/config"
	"github.com/Meridian-labs/meridian-wallet/internal/log"
	"github.com/Meridian-labs/meridian-wallet/internal/rpcclient"
	"github.com/Meridian-labs/meridian-wallet/internal/staking"
	"github.com/Meridian-labs/meridian-wallet/internal/storage"
	"github.com/Meridian-labs/meridian-wallet/internal/wallet"
	"github.com/Meridian-labs/meridian-wallet/pkg/types"
	"golang.org/x/term"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	// Parse global flags that appear before the subcommand.
	rpcURL := ""
	dataDir := ""
	network := "polkadot"
	confFile := ""

	// Scan for --rpc, --datadir, --network, and --config before the subcommand.
	args := os.Args[1:]
	for len(args) > 0 {
		switch {
		case args[0] == "--rpc" && len(args) > 1:
			rpcURL = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--rpc="):
			rpcURL = args[0][len("--rpc="):]
			args = args[1:]
		case args[0] == "--datadir" && len(args) > 1:
			dataDir = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--datadir="):
			dataDir = args[0][len("--datadir="):]
			args = args[1:]
		case args[0] == "--network" && len(args) > 1:
			network = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--network="):
			network = args[0][len("--network="):]
			args = args[1:]
		case args[0] == "--config" && len(args) > 1:
			confFile = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--config="):
			confFile = args[0][len("--config="):]
			args = args[1:]
		default:
			goto dispatch
		}
	}

dispatch:
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	cfg := loadConfig(network, confFile, rpcURL, dataDir)
	if err := log.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fatal("init logging: %v", err)
	}

	ctx := context.Background()
	cmd := args[0]
	cmdArgs := args[1:]

	switch cmd {
	case "address":
		cmdAddress(cmdArgs, cfg)
	case "balance":
		cmdBalance(ctx, cmdArgs, cfg)
	case "staking":
		cmdStaking(ctx, cmdArgs, cfg)
	case "rewards":
		cmdRewards(ctx, cmdArgs, cfg)
	case "status":
		cmdStatus(ctx, cmdArgs, cfg)
	case "actions":
		cmdActions(ctx, cmdArgs, cfg)
	case "submit":
		cmdSubmit(ctx, cmdArgs, cfg)
	case "metadata":
		cmdMetadata(ctx, cmdArgs, cfg)
	case "keygen":
		cmdKeygen(cmdArgs, cfg)
	case "help", "--help", "-h":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: meridian-cli [global flags] <command> [flags]

Global flags:
  --rpc <url>         Node RPC endpoint (default: per network)
  --network <net>     polkadot (default), kusama, or substrate
  --datadir <path>    Data directory (default: ~/.meridian)
  --config <file>     Configuration file (key = value lines)

Commands:
  address <ss58|0xhex>            Decode an address
  address --wallet <w>            List a wallet's addresses

  balance <address>               Show transferable balance
  staking <address>               Show bonding and nomination state
  rewards <address> --eras <list> Show staking rewards for specific eras
  rewards <address> --last <n>    Show rewards for the last n completed eras
  status <nominator> <validator>  Show nomination status against a validator
  actions <address> [--targets a,b,...]
                                  List currently legal delegation actions

  submit <hex>                    Submit a signed extrinsic
  submit <hex> --estimate         Estimate the fee instead of submitting
  metadata                        Show runtime and metadata summary
  metadata --modules              List runtime modules

  keygen new --name <n>           Create a new wallet
  keygen import --name <n> --mnemonic "..."
                                  Import a wallet from a mnemonic
  keygen list                     List wallets
  keygen accounts --name <n>      List a wallet's derived accounts
  keygen derive --name <n> [--label <l>]
                                  Derive the next account
  keygen delete --name <n>        Delete a wallet file
`)
}

// loadConfig resolves network defaults, then the config file, then
// command-line overrides, in that order.
func loadConfig(network, confFile, rpcURL, dataDir string) *config.Config {
	switch config.NetworkType(network) {
	case config.Polkadot, config.Kusama, config.Substrate:
	default:
		fatal("unknown network %q (want polkadot, kusama, or substrate)", network)
	}
	cfg := config.Default(config.NetworkType(network))

	if confFile != "" {
		values, err := config.LoadFile(confFile)
		if err != nil {
			fatal("read config %s: %v", confFile, err)
		}
		if err := config.ApplyFileConfig(cfg, values); err != nil {
			fatal("apply config %s: %v", confFile, err)
		}
	}

	if rpcURL != "" {
		cfg.RPC.Endpoint = rpcURL
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	if err := config.Validate(cfg); err != nil {
		fatal("invalid configuration: %v", err)
	}
	return cfg
}

// openNode builds the metadata-aware node client backed by the on-disk
// metadata cache. The returned closer releases the cache database.
func openNode(cfg *config.Config) (*rpcclient.NodeClient, func()) {
	db, err := storage.NewBadger(cfg.MetadataCacheDir())
	if err != nil {
		fatal("open metadata cache: %v", err)
	}
	// Separate endpoints keep separate cached metadata.
	store := storage.NewPrefixDB(db, []byte(cfg.RPC.Endpoint+"/"))
	node := rpcclient.NewNode(cfg.RPC.Endpoint,
		rpcclient.WithTimeout(cfg.RPC.Timeout),
		rpcclient.WithMetadataStore(store),
		rpcclient.WithDefaultBlockTime(cfg.Chain.BlockTime),
	)
	return node, func() { db.Close() }
}

// ── address ─────────────────────────────────────────────────────────────

func cmdAddress(args []string, cfg *config.Config) {
	fs := flag.NewFlagSet("address", flag.ExitOnError)
	walletName := fs.String("wallet", "", "Wallet name")
	fs.Parse(args)

	if *walletName != "" {
		ks, err := wallet.NewKeystore(cfg.KeystoreDir())
		if err != nil {
			fatal("open keystore: %v", err)
		}
		accounts, err := ks.ListAccounts(*walletName)
		if err != nil {
			fatal("list accounts: %v", err)
		}
		for _, acct := range accounts {
			fmt.Printf("%-12s m/44'/354'/%d'/0/%d  %s\n", acct.Name, acct.Account, acct.Index, acct.Address)
		}
		return
	}

	if fs.NArg() < 1 {
		fatal("Usage: meridian-cli address <ss58|0xhex> | address --wallet <name>")
	}

	id, networkID, err := parseAccount(fs.Arg(0))
	if err != nil {
		fatal("parse address: %v", err)
	}
	ss58, err := types.EncodeSS58(id, cfg.Chain.SS58Prefix)
	if err != nil {
		fatal("encode address: %v", err)
	}
	fmt.Printf("Account ID: 0x%x\n", id[:])
	if networkID != noNetwork {
		fmt.Printf("Encoded for network prefix %d\n", networkID)
	}
	fmt.Printf("%s address: %s\n", cfg.Network, ss58)
}

// ── balance ─────────────────────────────────────────────────────────────

func cmdBalance(ctx context.Context, args []string, cfg *config.Config) {
	fs := flag.NewFlagSet("balance", flag.ExitOnError)
	keepED := fs.Bool("keep-ed", false, "Include the existential deposit in the result")
	forFees := fs.Bool("for-fees", false, "Report the balance usable for transaction fees")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fatal("Usage: meridian-cli balance <address>")
	}
	account := mustAccount(fs.Arg(0))

	node, closeNode := openNode(cfg)
	defer closeNode()
	ctl := staking.NewController(node)

	transferable, err := ctl.TransferableBalance(ctx, account, !*keepED, !*forFees)
	if err != nil {
		fatal("query balance: %v", err)
	}

	fmt.Printf("Transferable: %s\n", formatAmount(transferable, cfg))
}

// ── staking ─────────────────────────────────────────────────────────────

func cmdStaking(ctx context.Context, args []string, cfg *config.Config) {
	if len(args) < 1 {
		fatal("Usage: meridian-cli staking <address>")
	}
	account := mustAccount(args[0])

	node, closeNode := openNode(cfg)
	defer closeNode()
	ctl := staking.NewController(node)

	snap, err := ctl.Snapshot(ctx, account)
	if err != nil {
		fatal("staking snapshot: %v", err)
	}

	fmt.Printf("Active era:    %d\n", snap.ActiveEra.Index)
	if snap.EraLength > 0 {
		fmt.Printf("Era length:    %d blocks\n", snap.EraLength)
	}
	fmt.Printf("Election open: %v\n", snap.ElectionOpen)
	fmt.Printf("Transferable:  %s\n", formatAmount(snap.Transferable, cfg))

	if snap.Ledger == nil {
		fmt.Println("Not bonded.")
		return
	}

	fmt.Printf("Bonded total:  %s\n", formatAmount(snap.Ledger.Total, cfg))
	fmt.Printf("Bonded active: %s\n", formatAmount(snap.Ledger.Active, cfg))
	for _, chunk := range snap.Ledger.Unlocking {
		fmt.Printf("  unlocking %s at era %d\n", formatAmount(chunk.Value, cfg), chunk.Era)
	}
	withdrawable := snap.Ledger.WithdrawableValue(snap.ActiveEra.Index)
	if withdrawable.Sign() > 0 {
		fmt.Printf("Withdrawable:  %s\n", formatAmount(withdrawable, cfg))
	}

	if snap.Nominations == nil {
		fmt.Println("Not nominating.")
		return
	}
	fmt.Printf("Nominating %d validators (submitted in era %d):\n",
		len(snap.Nominations.Targets), snap.Nominations.SubmittedIn)
	for _, target := range snap.Nominations.Targets {
		fmt.Printf("  %s\n", mustSS58(target, cfg))
	}
}

// ── rewards ─────────────────────────────────────────────────────────────

func cmdRewards(ctx context.Context, args []string, cfg *config.Config) {
	fs := flag.NewFlagSet("rewards", flag.ExitOnError)
	eraList := fs.String("eras", "", "Comma-separated era indices")
	last := fs.Uint("last", 0, "Last n completed eras")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fatal("Usage: meridian-cli rewards <address> --eras <list> | --last <n>")
	}
	account := mustAccount(fs.Arg(0))

	node, closeNode := openNode(cfg)
	defer closeNode()
	ctl := staking.NewController(node)

	var eras []uint32
	switch {
	case *eraList != "":
		var err error
		eras, err = parseEras(*eraList)
		if err != nil {
			fatal("parse eras: %v", err)
		}
	case *last > 0:
		snap, err := ctl.Snapshot(ctx, account)
		if err != nil {
			fatal("staking snapshot: %v", err)
		}
		active := snap.ActiveEra.Index
		for i := uint32(1); i <= uint32(*last) && i <= active; i++ {
			eras = append(eras, active-i)
		}
	default:
		fatal("one of --eras or --last is required")
	}

	rewards, err := ctl.RewardsForEras(ctx, account, eras)
	if err != nil {
		fatal("query rewards: %v", err)
	}
	if len(rewards) == 0 {
		fmt.Println("No rewards recorded for the requested eras.")
		return
	}

	total := new(big.Rat)
	for _, r := range rewards {
		fmt.Printf("Era %-8d %s\n", r.Era, formatRatAmount(r.Amount, cfg))
		total.Add(total, r.Amount)
	}
	fmt.Printf("Total        %s\n", formatRatAmount(total, cfg))
}

// ── status ──────────────────────────────────────────────────────────────

func cmdStatus(ctx context.Context, args []string, cfg *config.Config) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	era := fs.Uint("era", 0, "Era to inspect (default: active era)")
	details := fs.Bool("details", false, "Show the validator's stake and identity")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fatal("Usage: meridian-cli status <nominator> <validator> [--era <n>] [--details]")
	}
	nominator := mustAccount(fs.Arg(0))
	validator := mustAccount(fs.Arg(1))

	node, closeNode := openNode(cfg)
	defer closeNode()
	ctl := staking.NewController(node)

	eraIndex := uint32(*era)
	if *era == 0 {
		snap, err := ctl.Snapshot(ctx, nominator)
		if err != nil {
			fatal("staking snapshot: %v", err)
		}
		eraIndex = snap.ActiveEra.Index
	}

	status, err := ctl.Status(ctx, nominator, validator, eraIndex)
	if err != nil {
		fatal("query status: %v", err)
	}
	fmt.Printf("Era %d: %s\n", eraIndex, status)

	if *details {
		info, err := ctl.ValidatorDetails(ctx, validator, eraIndex)
		if err != nil {
			fatal("validator details: %v", err)
		}
		printValidator(info, cfg)
	}
}

func printValidator(info *staking.ValidatorDetails, cfg *config.Config) {
	if info.DisplayName != "" {
		fmt.Printf("Validator:    %s (%s)\n", info.DisplayName, mustSS58(info.Validator, cfg))
	} else {
		fmt.Printf("Validator:    %s\n", mustSS58(info.Validator, cfg))
	}
	fmt.Printf("Commission:   %s%%\n", formatPerbill(info.Commission))
	fmt.Printf("Own stake:    %s\n", formatAmount(info.OwnStake, cfg))
	fmt.Printf("Total stake:  %s\n", formatAmount(info.TotalStake, cfg))
	fmt.Printf("Nominators:   %d\n", info.NominatorCount)
	fmt.Printf("Era points:   %d\n", info.RewardPoints)
}

// ── actions ─────────────────────────────────────────────────────────────

func cmdActions(ctx context.Context, args []string, cfg *config.Config) {
	fs := flag.NewFlagSet("actions", flag.ExitOnError)
	targetList := fs.String("targets", "", "Comma-separated validator addresses being considered")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fatal("Usage: meridian-cli actions <address> [--targets <a,b,...>]")
	}
	account := mustAccount(fs.Arg(0))

	var targets []types.AccountID
	if *targetList != "" {
		for _, part := range strings.Split(*targetList, ",") {
			targets = append(targets, mustAccount(strings.TrimSpace(part)))
		}
	}

	node, closeNode := openNode(cfg)
	defer closeNode()
	ctl := staking.NewController(node)

	actions, err := ctl.EligibleActions(ctx, account, targets)
	if err != nil {
		fatal("query actions: %v", err)
	}
	if len(actions) == 0 {
		fmt.Println("No delegation actions are currently available.")
		return
	}

	for _, action := range actions {
		if len(action.Targets) == 0 {
			fmt.Println(action.Type)
			continue
		}
		names := make([]string, len(action.Targets))
		for i, target := range action.Targets {
			names[i] = mustSS58(target, cfg)
		}
		fmt.Printf("%s -> %s\n", action.Type, strings.Join(names, ", "))
	}
}

// ── submit ──────────────────────────────────────────────────────────────

func cmdSubmit(ctx context.Context, args []string, cfg *config.Config) {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	estimate := fs.Bool("estimate", false, "Estimate the fee instead of submitting")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fatal("Usage: meridian-cli submit <hex> [--estimate]")
	}
	encoded, err := hex.DecodeString(strings.TrimPrefix(fs.Arg(0), "0x"))
	if err != nil {
		fatal("decode extrinsic hex: %v", err)
	}

	node, closeNode := openNode(cfg)
	defer closeNode()

	if *estimate {
		fee, ok, err := node.EstimateFee(ctx, encoded)
		if err != nil {
			fatal("estimate fee: %v", err)
		}
		if !ok {
			fmt.Println("Node reported no fee for this extrinsic.")
			return
		}
		fmt.Printf("Estimated fee: %s\n", formatAmount(fee, cfg))
		return
	}

	hash, err := node.SubmitExtrinsic(ctx, encoded)
	if err != nil {
		fatal("submit extrinsic: %v", err)
	}
	fmt.Printf("Submitted: %s\n", hash)
}

// ── metadata ────────────────────────────────────────────────────────────

func cmdMetadata(ctx context.Context, args []string, cfg *config.Config) {
	fs := flag.NewFlagSet("metadata", flag.ExitOnError)
	modules := fs.Bool("modules", false, "List runtime modules")
	fs.Parse(args)

	node, closeNode := openNode(cfg)
	defer closeNode()

	runtime, err := node.Runtime(ctx)
	if err != nil {
		fatal("query runtime: %v", err)
	}
	md, err := node.Metadata(ctx)
	if err != nil {
		fatal("query metadata: %v", err)
	}

	fmt.Printf("Chain:          %s (%s)\n", runtime.SpecName, runtime.ImplName)
	fmt.Printf("Spec version:   %d\n", runtime.SpecVersion)
	fmt.Printf("Tx version:     %d\n", runtime.TransactionVersion)
	fmt.Printf("Metadata:       v%d, %d modules\n", md.Version, len(md.Modules))

	if !*modules {
		return
	}
	for _, mod := range md.Modules {
		fmt.Printf("  [%3d] %-24s storage=%-3d calls=%-3d constants=%d\n",
			mod.Index, mod.Name, len(mod.Storage), len(mod.Calls), len(mod.Constants))
	}
}

// ── keygen ──────────────────────────────────────────────────────────────

func cmdKeygen(args []string, cfg *config.Config) {
	if len(args) < 1 {
		fatal("Usage: meridian-cli keygen <new|import|list|accounts|derive|delete> [flags]")
	}

	switch args[0] {
	case "new":
		cmdKeygenNew(args[1:], cfg)
	case "import":
		cmdKeygenImport(args[1:], cfg)
	case "list":
		cmdKeygenList(cfg)
	case "accounts":
		cmdKeygenAccounts(args[1:], cfg)
	case "derive":
		cmdKeygenDerive(args[1:], cfg)
	case "delete":
		cmdKeygenDelete(args[1:], cfg)
	default:
		fatal("Unknown keygen command: %s\nUsage: meridian-cli keygen <new|import|list|accounts|derive|delete> [flags]", args[0])
	}
}

func cmdKeygenNew(args []string, cfg *config.Config) {
	fs := flag.NewFlagSet("keygen new", flag.ExitOnError)
	name := fs.String("name", "", "Wallet name")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: meridian-cli keygen new --name <name>")
	}

	mnemonic, err := wallet.GenerateMnemonic()
	if err != nil {
		fatal("generate mnemonic: %v", err)
	}

	fmt.Println("Mnemonic (write this down!):")
	fmt.Printf("  %s\n\n", mnemonic)

	createWallet(*name, mnemonic, cfg)
	fmt.Printf("\nWallet created: %s\n", *name)
}

func cmdKeygenImport(args []string, cfg *config.Config) {
	fs := flag.NewFlagSet("keygen import", flag.ExitOnError)
	name := fs.String("name", "", "Wallet name")
	mnemonic := fs.String("mnemonic", "", "BIP-39 mnemonic (24 words)")
	fs.Parse(args)

	if *name == "" || *mnemonic == "" {
		fatal("Usage: meridian-cli keygen import --name <name> --mnemonic \"word1 word2 ...\"")
	}
	if !wallet.ValidateMnemonic(*mnemonic) {
		fatal("invalid mnemonic")
	}

	createWallet(*name, *mnemonic, cfg)
	fmt.Printf("Wallet imported: %s\n", *name)
}

// createWallet prompts for a password, seals the seed, and records the
// first derived account.
func createWallet(name, mnemonic string, cfg *config.Config) {
	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	if string(password) != string(confirm) {
		fatal("passwords do not match")
	}

	seed, err := wallet.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		fatal("derive seed: %v", err)
	}

	keyring, err := wallet.NewKeyring(seed)
	if err != nil {
		fatal("derive keyring: %v", err)
	}
	acct, err := keyring.Derive(0, 0)
	if err != nil {
		fatal("derive account: %v", err)
	}
	defer acct.Zero()
	address, err := acct.Address(cfg.Chain.SS58Prefix)
	if err != nil {
		fatal("encode address: %v", err)
	}

	ks, err := wallet.NewKeystore(cfg.KeystoreDir())
	if err != nil {
		fatal("open keystore: %v", err)
	}
	if err := ks.Create(name, seed, password, cfg.Chain.SS58Prefix, wallet.DefaultParams()); err != nil {
		fatal("create wallet: %v", err)
	}
	for i := range seed {
		seed[i] = 0
	}

	if err := ks.AddAccount(name, wallet.AccountEntry{
		Account: 0,
		Index:   0,
		Name:    "default",
		Address: address,
	}); err != nil {
		fatal("add account: %v", err)
	}

	fmt.Printf("Address: %s\n", address)
}

func cmdKeygenList(cfg *config.Config) {
	ks, err := wallet.NewKeystore(cfg.KeystoreDir())
	if err != nil {
		fatal("open keystore: %v", err)
	}
	names, err := ks.List()
	if err != nil {
		fatal("list wallets: %v", err)
	}
	if len(names) == 0 {
		fmt.Println("No wallets found.")
		return
	}
	for _, name := range names {
		fmt.Println(name)
	}
}

func cmdKeygenAccounts(args []string, cfg *config.Config) {
	fs := flag.NewFlagSet("keygen accounts", flag.ExitOnError)
	name := fs.String("name", "", "Wallet name")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: meridian-cli keygen accounts --name <name>")
	}

	ks, err := wallet.NewKeystore(cfg.KeystoreDir())
	if err != nil {
		fatal("open keystore: %v", err)
	}
	accounts, err := ks.ListAccounts(*name)
	if err != nil {
		fatal("list accounts: %v", err)
	}
	for _, acct := range accounts {
		fmt.Printf("%-12s m/44'/354'/%d'/0/%d  %s\n", acct.Name, acct.Account, acct.Index, acct.Address)
	}
}

func cmdKeygenDerive(args []string, cfg *config.Config) {
	fs := flag.NewFlagSet("keygen derive", flag.ExitOnError)
	name := fs.String("name", "", "Wallet name")
	label := fs.String("label", "", "Account label")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: meridian-cli keygen derive --name <name> [--label <label>]")
	}

	ks, err := wallet.NewKeystore(cfg.KeystoreDir())
	if err != nil {
		fatal("open keystore: %v", err)
	}

	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	seed, err := ks.Load(*name, password)
	if err != nil {
		fatal("unlock wallet: %v", err)
	}
	defer func() {
		for i := range seed {
			seed[i] = 0
		}
	}()

	next, err := ks.NextAccount(*name)
	if err != nil {
		fatal("next account: %v", err)
	}

	keyring, err := wallet.NewKeyring(seed)
	if err != nil {
		fatal("derive keyring: %v", err)
	}
	acct, err := keyring.Derive(next, 0)
	if err != nil {
		fatal("derive account: %v", err)
	}
	defer acct.Zero()

	network, err := ks.Network(*name)
	if err != nil {
		fatal("wallet network: %v", err)
	}
	address, err := acct.Address(network)
	if err != nil {
		fatal("encode address: %v", err)
	}

	entryName := *label
	if entryName == "" {
		entryName = fmt.Sprintf("account-%d", next)
	}
	if err := ks.AddAccount(*name, wallet.AccountEntry{
		Account: next,
		Index:   0,
		Name:    entryName,
		Address: address,
	}); err != nil {
		fatal("add account: %v", err)
	}

	fmt.Printf("Derived account %d: %s\n", next, address)
}

func cmdKeygenDelete(args []string, cfg *config.Config) {
	fs := flag.NewFlagSet("keygen delete", flag.ExitOnError)
	name := fs.String("name", "", "Wallet name")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: meridian-cli keygen delete --name <name>")
	}

	ks, err := wallet.NewKeystore(cfg.KeystoreDir())
	if err != nil {
		fatal("open keystore: %v", err)
	}
	if err := ks.Delete(*name); err != nil {
		fatal("delete wallet: %v", err)
	}
	fmt.Printf("Wallet deleted: %s\n", *name)
}

// ── Address and amount helpers ──────────────────────────────────────────

// noNetwork marks an account ID supplied as raw hex rather than SS58.
const noNetwork = ^uint16(0)

// parseAccount accepts an SS58 address or a 0x-prefixed 32-byte hex key.
func parseAccount(s string) (types.AccountID, uint16, error) {
	if strings.HasPrefix(s, "0x") {
		raw, err := hex.DecodeString(s[2:])
		if err != nil {
			return types.AccountID{}, 0, fmt.Errorf("invalid hex: %w", err)
		}
		id, err := types.AccountIDFromBytes(raw)
		if err != nil {
			return types.AccountID{}, 0, err
		}
		return id, noNetwork, nil
	}
	return types.DecodeSS58(s)
}

func mustAccount(s string) types.AccountID {
	id, _, err := parseAccount(s)
	if err != nil {
		fatal("parse address %q: %v", s, err)
	}
	return id
}

func mustSS58(id types.AccountID, cfg *config.Config) string {
	addr, err := types.EncodeSS58(id, cfg.Chain.SS58Prefix)
	if err != nil {
		fatal("encode address: %v", err)
	}
	return addr
}

func parseEras(list string) ([]uint32, error) {
	var eras []uint32
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		era, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid era %q: %w", part, err)
		}
		eras = append(eras, uint32(era))
	}
	if len(eras) == 0 {
		return nil, fmt.Errorf("empty era list")
	}
	return eras, nil
}

// formatAmount converts raw chain units to a decimal token string.
func formatAmount(v *big.Int, cfg *config.Config) string {
	if v == nil {
		return "0 " + cfg.Chain.TokenSymbol
	}
	neg := v.Sign() < 0
	abs := new(big.Int).Abs(v)
	pow := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(cfg.Chain.TokenDecimals)), nil)
	whole, frac := new(big.Int).QuoRem(abs, pow, new(big.Int))

	sign := ""
	if neg {
		sign = "-"
	}
	if cfg.Chain.TokenDecimals == 0 {
		return fmt.Sprintf("%s%s %s", sign, whole, cfg.Chain.TokenSymbol)
	}
	fracStr := frac.String()
	if pad := cfg.Chain.TokenDecimals - len(fracStr); pad > 0 {
		fracStr = strings.Repeat("0", pad) + fracStr
	}
	return fmt.Sprintf("%s%s.%s %s", sign, whole, fracStr, cfg.Chain.TokenSymbol)
}

// formatRatAmount renders an exact reward value in token units.
func formatRatAmount(r *big.Rat, cfg *config.Config) string {
	pow := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(cfg.Chain.TokenDecimals)), nil)
	tokens := new(big.Rat).Quo(r, new(big.Rat).SetInt(pow))
	return fmt.Sprintf("%s %s", strings.TrimRight(strings.TrimRight(tokens.FloatString(6), "0"), "."), cfg.Chain.TokenSymbol)
}

// formatPerbill renders a parts-per-billion commission as a percentage.
func formatPerbill(v uint32) string {
	pct := new(big.Rat).SetFrac64(int64(v), 10_000_000)
	return strings.TrimRight(strings.TrimRight(pct.FloatString(4), "0"), ".")
}

// ── Password helper ─────────────────────────────────────────────────────

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

// ── Error helper ────────────────────────────────────────────────────────

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

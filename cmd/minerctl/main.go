// Command minerctl issues a single authenticated miner RPC call from the
// command line: ping, store, retrieve, validate, or remove.
package main

import (
	"encoding/base64"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/subnetcore/validator/internal/crypto"
	"github.com/subnetcore/validator/internal/minerrpc"
)

func main() {
	var (
		keyFile   = flag.String("keyfile", "./validator.key", "Path to the caller's Ed25519 key file")
		addr      = flag.String("addr", "", "Miner's ip:port")
		target    = flag.String("target", "", "Miner's ss58 address")
		action    = flag.String("action", "ping", "Action: ping, store, retrieve, validate, remove")
		folder    = flag.String("folder", "", "User ss58 address namespacing the chunk")
		chunkUUID = flag.String("chunk", "", "Chunk UUID")
		chunkFile = flag.String("file", "", "Path to a file to store (for action=store)")
		nonce     = flag.String("nonce", "", "Freshness nonce (for action=validate)")
	)
	flag.Parse()

	if *addr == "" || *target == "" {
		fmt.Fprintln(os.Stderr, "minerctl: -addr and -target are required")
		os.Exit(2)
	}

	keys, err := crypto.LoadKeyPair(*keyFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "minerctl: loading key file: %v\n", err)
		os.Exit(1)
	}

	switch minerrpc.Action(*action) {
	case minerrpc.ActionPing:
		moduleType, elapsed, err := minerrpc.Ping(keys, *addr, *target)
		report(err, elapsed, moduleType)

	case minerrpc.ActionStore:
		data, err := os.ReadFile(*chunkFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "minerctl: reading %s: %v\n", *chunkFile, err)
			os.Exit(1)
		}
		res, chunkUUIDOut := minerrpc.Store(keys, *addr, *target, *folder, base64.StdEncoding.EncodeToString(data))
		report(res.Err, res.Elapsed, chunkUUIDOut)

	case minerrpc.ActionRetrieve:
		res, chunk := minerrpc.Retrieve(keys, *addr, *target, *folder, *chunkUUID)
		if res.Err == nil {
			decoded, _ := base64.StdEncoding.DecodeString(chunk)
			os.Stdout.Write(decoded)
			return
		}
		report(res.Err, res.Elapsed, "")

	case minerrpc.ActionValidate:
		res, hash := minerrpc.Validate(keys, *addr, *target, *folder, *chunkUUID, *nonce)
		report(res.Err, res.Elapsed, hash)

	case minerrpc.ActionRemove:
		res := minerrpc.Remove(keys, *addr, *target, *folder, *chunkUUID)
		report(res.Err, res.Elapsed, "")

	default:
		fmt.Fprintf(os.Stderr, "minerctl: unknown action %q\n", *action)
		os.Exit(2)
	}
}

func report(err error, elapsed time.Duration, value string) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "minerctl: failed after %v: %v\n", elapsed, err)
		os.Exit(1)
	}
	if value != "" {
		fmt.Println(value)
	}
	fmt.Fprintf(os.Stderr, "minerctl: succeeded in %v\n", elapsed)
}

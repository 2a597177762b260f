package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

const (
	defaultSecretKeyBytesLen = 32
	minSecretKeyBytesLen     = 16
)

// Print random hex SECRET_KEY, optionally as a line ready for '.env'
func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error while generating secret key: %v\n", err)
		os.Exit(1)
	}
}

func run(out io.Writer, args []string) error {
	fs := pflag.NewFlagSet("gensecret", pflag.ContinueOnError)
	n := fs.IntP("bytes", "n", defaultSecretKeyBytesLen, "Secret length in bytes")
	dotenv := fs.BoolP("dotenv", "e", false, "Print as SECRET_KEY=<value>")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *n < minSecretKeyBytesLen {
		return fmt.Errorf("secret must be at least %d bytes, got %d", minSecretKeyBytesLen, *n)
	}

	b := make([]byte, *n)
	if _, err := rand.Read(b); err != nil {
		return err
	}

	key := hex.EncodeToString(b)
	if *dotenv {
		key = "SECRET_KEY=" + key
	}

	_, err := fmt.Fprintln(out, key)
	return err
}

package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Rrens/rag-chatbot/internal/security"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	key := flag.String("key", "", "admin key to hash (read from stdin when empty)")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := run(os.Stdin, os.Stdout, *key); err != nil {
		log.Fatal().Err(err).Msg("Failed to hash admin key")
	}
}

// run prints an ADMIN_API_KEY_HASH line for key, or for the first line of in
func run(in io.Reader, out io.Writer, key string) error {
	if key == "" {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read key: %w", err)
		}
		key = strings.TrimSpace(line)
	}
	if key == "" {
		return errors.New("admin key is empty")
	}

	hash, err := security.HashAdminKey(key)
	if err != nil {
		return err
	}

	// Verify the hash round-trips before handing it out
	checker, err := security.NewAdminKeyChecker(hash)
	if err != nil {
		return err
	}
	if !checker.Check(key) {
		return errors.New("generated hash does not verify")
	}

	_, err = fmt.Fprintf(out, "ADMIN_API_KEY_HASH=%s\n", hash)
	return err
}

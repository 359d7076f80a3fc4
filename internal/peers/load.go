package peers

import (
	"bufio"
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/juju/errors"
	"gopkg.in/yaml.v3"
)

const resolveTimeout = 5 * time.Second

// lookupHost is replaced in tests.
var lookupHost = net.DefaultResolver.LookupHost

type yamlFile struct {
	Peers []struct {
		ID      int    `yaml:"id"`
		Address string `yaml:"address"`
	} `yaml:"peers"`
}

// Load reads the static peer list at path. The list must name self exactly
// once; every other entry ends up in the registry. Bare hosts get defaultPort.
//
// Files ending in .yaml or .yml hold a "peers" list of id/address pairs;
// anything else is read as "<id> <address>" lines, where blank lines and
// lines starting with '#' are ignored.
func Load(path string, self ID, defaultPort uint16) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Annotate(err, "opening peer config")
	}
	defer f.Close()

	var entries []Peer
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		entries, err = parseYAML(f, defaultPort)
	default:
		entries, err = Parse(f, defaultPort)
	}
	if err != nil {
		return nil, errors.Annotatef(err, "peer config %s", path)
	}

	all, err := NewRegistry(entries)
	if err != nil {
		return nil, errors.Annotatef(err, "peer config %s", path)
	}
	if !all.Contains(self) {
		return nil, errors.NotValidf("peer config %s: process id %d is not listed", path, self)
	}

	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()

	others := make([]Peer, 0, len(entries)-1)
	for _, p := range all.All() {
		if err := resolve(ctx, p.Address.Host); err != nil {
			return nil, errors.Annotatef(err, "peer config %s", path)
		}
		if p.ID != self {
			others = append(others, p)
		}
	}
	return NewRegistry(others)
}

// Parse reads "<id> <address>" lines.
func Parse(r io.Reader, defaultPort uint16) ([]Peer, error) {
	var entries []Peer
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, errors.NotValidf("line %d %q: expected \"<id> <address>\"", lineNo, line)
		}
		p, err := newPeer(fields[0], fields[1], defaultPort)
		if err != nil {
			return nil, errors.Annotatef(err, "line %d", lineNo)
		}
		entries = append(entries, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	return entries, nil
}

func parseYAML(r io.Reader, defaultPort uint16) ([]Peer, error) {
	var doc yamlFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, errors.NewNotValid(err, "yaml peer list")
	}
	entries := make([]Peer, 0, len(doc.Peers))
	for i, e := range doc.Peers {
		addr, err := ParseAddress(e.Address, defaultPort)
		if err != nil {
			return nil, errors.Annotatef(err, "entry %d", i)
		}
		entries = append(entries, Peer{ID: ID(e.ID), Address: addr})
	}
	return entries, nil
}

func newPeer(idStr, addrStr string, defaultPort uint16) (Peer, error) {
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return Peer{}, errors.NewNotValid(err, "process id "+strconv.Quote(idStr))
	}
	addr, err := ParseAddress(addrStr, defaultPort)
	if err != nil {
		return Peer{}, errors.Trace(err)
	}
	return Peer{ID: ID(id), Address: addr}, nil
}

func resolve(ctx context.Context, host string) error {
	if net.ParseIP(host) != nil {
		return nil
	}
	if _, err := lookupHost(ctx, host); err != nil {
		return errors.NewNotValid(err, "unresolvable host "+strconv.Quote(host))
	}
	return nil
}

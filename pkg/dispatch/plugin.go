package dispatch

import (
	"fmt"
	"plugin"

	"github.com/remastered-go/remastered/internal/errors"
	"github.com/remastered-go/remastered/pkg/entry"
)

// EntrySymbol is the symbol a server entry plugin exports.
const EntrySymbol = "Entry"

// OpenPlugin loads a server entry plugin built with -buildmode=plugin. The
// plugin must export a package-level variable named Entry implementing
// entry.Entry.
func OpenPlugin(path string) (entry.Entry, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, errors.New("R132").WithDetail(path).Wrap(err)
	}
	sym, err := p.Lookup(EntrySymbol)
	if err != nil {
		return nil, errors.New("R132").WithDetail(path).Wrap(err)
	}
	return entryFromSymbol(sym)
}

func entryFromSymbol(sym any) (entry.Entry, error) {
	switch v := sym.(type) {
	case *entry.Entry:
		if *v != nil {
			return *v, nil
		}
	case entry.Entry:
		return v, nil
	}
	return nil, errors.New("R132").Wrap(fmt.Errorf("symbol %s has type %T", EntrySymbol, sym))
}

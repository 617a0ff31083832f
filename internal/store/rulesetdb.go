package store

import (
	"github.com/hashicorp/go-multierror"
)

// RulesetDB bundles the three independent DomainStores that make up one
// compiled ruleset.
type RulesetDB struct {
	Blacklist *DomainStore
	Whitelist *DomainStore
	Rewrites  *DomainStore
}

// NewRulesetDB creates three fresh DomainStores under baseDir.
func NewRulesetDB(baseDir string) (*RulesetDB, error) {
	blacklist, err := NewDomainStore(baseDir)
	if err != nil {
		return nil, err
	}
	whitelist, err := NewDomainStore(baseDir)
	if err != nil {
		_ = blacklist.Destroy()
		return nil, err
	}
	rewrites, err := NewDomainStore(baseDir)
	if err != nil {
		_ = blacklist.Destroy()
		_ = whitelist.Destroy()
		return nil, err
	}
	return &RulesetDB{Blacklist: blacklist, Whitelist: whitelist, Rewrites: rewrites}, nil
}

// Destroy destroys all three stores, collecting rather than stopping at the
// first failure.
func (r *RulesetDB) Destroy() error {
	var result *multierror.Error
	if err := r.Blacklist.Destroy(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := r.Whitelist.Destroy(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := r.Rewrites.Destroy(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package policy parses and evaluates endorsement policies: a boolean
// predicate (ANY/ALL/MAJORITY) over a set of endorsing organizations. It
// mirrors the shape of fabric's policy evaluation (common/policies,
// msp's ImplicitMetaPolicy) trimmed to the three predicates litefab
// supports, expressed as a small literal grammar instead of fabric's
// protobuf SignaturePolicyEnvelope.
package policy

import (
	"sort"
	"strings"

	"github.com/litefab/litefab/internal/model"
	"github.com/pkg/errors"
)

// Parse reads the literal grammar "(ANY|ALL|MAJORITY):Org1,Org2[,...]"
// used by the client's `deploy --policy` flag.
func Parse(literal string) (*model.EndorsementPolicy, error) {
	parts := strings.SplitN(literal, ":", 2)
	if len(parts) != 2 {
		return nil, errors.Errorf("policy: malformed literal %q, want TYPE:Org1,Org2", literal)
	}

	var ptype model.PolicyType
	switch strings.ToUpper(strings.TrimSpace(parts[0])) {
	case "ANY":
		ptype = model.PolicyAny
	case "ALL":
		ptype = model.PolicyAll
	case "MAJORITY":
		ptype = model.PolicyMajority
	default:
		return nil, errors.Errorf("policy: unknown policy type %q", parts[0])
	}

	var orgs []string
	for _, o := range strings.Split(parts[1], ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			orgs = append(orgs, o)
		}
	}
	if len(orgs) == 0 {
		return nil, errors.Errorf("policy: literal %q names no organizations", literal)
	}

	return &model.EndorsementPolicy{Type: ptype, Orgs: orgs}, nil
}

// String renders policy back to its literal grammar.
func String(p model.EndorsementPolicy) string {
	return string(p.Type) + ":" + strings.Join(p.Orgs, ",")
}

// Evaluate reports whether the distinct endorsing organizations in
// endorsingOrgs satisfy p under the ANY/ALL/MAJORITY rules.
func Evaluate(p model.EndorsementPolicy, endorsingOrgs []string) bool {
	present := make(map[string]bool, len(endorsingOrgs))
	for _, o := range endorsingOrgs {
		present[o] = true
	}

	switch p.Type {
	case model.PolicyAny:
		for _, o := range p.Orgs {
			if present[o] {
				return true
			}
		}
		return false
	case model.PolicyAll:
		for _, o := range p.Orgs {
			if !present[o] {
				return false
			}
		}
		return true
	case model.PolicyMajority:
		count := 0
		for _, o := range p.Orgs {
			if present[o] {
				count++
			}
		}
		return count >= len(p.Orgs)/2+1
	default:
		return false
	}
}

// DistinctOrgs returns orgs with duplicates removed, sorted, for stable
// logging and error messages.
func DistinctOrgs(orgs []string) []string {
	seen := make(map[string]bool, len(orgs))
	var out []string
	for _, o := range orgs {
		if !seen[o] {
			seen[o] = true
			out = append(out, o)
		}
	}
	sort.Strings(out)
	return out
}

/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package policy

import (
	"testing"

	"github.com/litefab/litefab/internal/model"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	p, err := Parse("ALL:Org1,Org2")
	require.NoError(t, err)
	require.Equal(t, model.PolicyAll, p.Type)
	require.Equal(t, []string{"Org1", "Org2"}, p.Orgs)
	require.Equal(t, "ALL:Org1,Org2", String(*p))
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, bad := range []string{"ALL", "FOO:Org1", "ANY:", "ANY: , "} {
		_, err := Parse(bad)
		require.Error(t, err, bad)
	}
}

func TestParseIsCaseInsensitiveOnType(t *testing.T) {
	p, err := Parse("any:Org1")
	require.NoError(t, err)
	require.Equal(t, model.PolicyAny, p.Type)
}

func TestEvaluateAny(t *testing.T) {
	p := model.EndorsementPolicy{Type: model.PolicyAny, Orgs: []string{"Org1", "Org2"}}
	require.True(t, Evaluate(p, []string{"Org2"}))
	require.False(t, Evaluate(p, []string{"Org3"}))
	require.False(t, Evaluate(p, nil))
}

func TestEvaluateAll(t *testing.T) {
	p := model.EndorsementPolicy{Type: model.PolicyAll, Orgs: []string{"Org1", "Org2"}}
	require.True(t, Evaluate(p, []string{"Org1", "Org2"}))
	require.False(t, Evaluate(p, []string{"Org1"}))
}

func TestEvaluateMajority(t *testing.T) {
	p := model.EndorsementPolicy{Type: model.PolicyMajority, Orgs: []string{"Org1", "Org2", "Org3"}}
	require.False(t, Evaluate(p, []string{"Org1"}))
	require.True(t, Evaluate(p, []string{"Org1", "Org2"}))
	require.True(t, Evaluate(p, []string{"Org1", "Org2", "Org3"}))
}

func TestEvaluateMajorityOfTwo(t *testing.T) {
	p := model.EndorsementPolicy{Type: model.PolicyMajority, Orgs: []string{"Org1", "Org2"}}
	require.False(t, Evaluate(p, []string{"Org1"}), "floor(2/2)+1 = 2, one org is not a majority")
	require.True(t, Evaluate(p, []string{"Org1", "Org2"}))
}

func TestDistinctOrgsDedupsAndSorts(t *testing.T) {
	require.Equal(t, []string{"Org1", "Org2"}, DistinctOrgs([]string{"Org2", "Org1", "Org2"}))
}

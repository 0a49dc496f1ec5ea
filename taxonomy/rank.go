// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package taxonomy

import "strings"

// Rank is a taxonomic rank label. The set is open: codecs store whatever
// label a source file carries. The canonical NCBI subset below additionally
// carries a total order (Domain above Phylum above ... above Species) used
// by rank-scoped ancestor search; labels outside that subset compare as
// unknown and cannot be the target of a rank-scoped lookup.
type Rank string

// Canonical ranks recognized by ParseRank. These match the strings the
// NCBI taxonomy dump uses.
const (
	RankDomain          Rank = "domain"
	RankSuperkingdom    Rank = "superkingdom"
	RankKingdom         Rank = "kingdom"
	RankSubkingdom      Rank = "subkingdom"
	RankSuperphylum     Rank = "superphylum"
	RankPhylum          Rank = "phylum"
	RankSubphylum       Rank = "subphylum"
	RankSuperclass      Rank = "superclass"
	RankClass           Rank = "class"
	RankSubclass        Rank = "subclass"
	RankInfraclass      Rank = "infraclass"
	RankCohort          Rank = "cohort"
	RankSuperorder      Rank = "superorder"
	RankOrder           Rank = "order"
	RankSuborder        Rank = "suborder"
	RankInfraorder      Rank = "infraorder"
	RankParvorder       Rank = "parvorder"
	RankSuperfamily     Rank = "superfamily"
	RankFamily          Rank = "family"
	RankSubfamily       Rank = "subfamily"
	RankTribe           Rank = "tribe"
	RankSubtribe        Rank = "subtribe"
	RankGenus           Rank = "genus"
	RankSubgenus        Rank = "subgenus"
	RankSpeciesGroup    Rank = "species group"
	RankSpeciesSubgroup Rank = "species subgroup"
	RankSpecies         Rank = "species"
	RankSubspecies      Rank = "subspecies"
	RankVarietas        Rank = "varietas"
	RankForma           Rank = "forma"

	// RankNoRank is the canonical "unranked" label ("no rank" in NCBI
	// dumps). It participates in no ordering.
	RankNoRank Rank = "no rank"
)

// rankDepth assigns each ordered rank a depth, root-most ranks first.
// RankNoRank and unrecognized labels are deliberately absent.
var rankDepth = map[Rank]int{
	RankDomain:          0,
	RankSuperkingdom:    1,
	RankKingdom:         2,
	RankSubkingdom:      3,
	RankSuperphylum:     4,
	RankPhylum:          5,
	RankSubphylum:       6,
	RankSuperclass:      7,
	RankClass:           8,
	RankSubclass:        9,
	RankInfraclass:      10,
	RankCohort:          11,
	RankSuperorder:      12,
	RankOrder:           13,
	RankSuborder:        14,
	RankInfraorder:      15,
	RankParvorder:       16,
	RankSuperfamily:     17,
	RankFamily:          18,
	RankSubfamily:       19,
	RankTribe:           20,
	RankSubtribe:        21,
	RankGenus:           22,
	RankSubgenus:        23,
	RankSpeciesGroup:    24,
	RankSpeciesSubgroup: 25,
	RankSpecies:         26,
	RankSubspecies:      27,
	RankVarietas:        28,
	RankForma:           29,
}

// rankAliases maps spelling variants seen in the wild onto canonical ranks.
var rankAliases = map[string]Rank{
	"superphlyum": RankSuperphylum,
	"superphyla":  RankSuperphylum,
	"phyla":       RankPhylum,
	"subphyla":    RankSubphylum,
	"variety":     RankVarietas,
}

// ParseRank normalizes a raw rank label. Canonical ranks and their known
// aliases come back as the canonical Rank; anything else is preserved
// verbatim (lowercased and trimmed) as an unordered rank.
func ParseRank(s string) Rank {
	cleaned := strings.ToLower(strings.TrimSpace(s))
	if cleaned == "" {
		return RankNoRank
	}
	if r, ok := rankAliases[cleaned]; ok {
		return r
	}
	return Rank(cleaned)
}

// Ordered reports whether the rank belongs to the totally ordered subset.
func (r Rank) Ordered() bool {
	_, ok := rankDepth[r]
	return ok
}

// Depth returns the rank's position in the total order, smaller values
// being closer to the root. The second result is false for RankNoRank and
// unrecognized labels.
func (r Rank) Depth() (int, bool) {
	d, ok := rankDepth[r]
	return d, ok
}

// Below reports whether r is strictly more specific than other (e.g.
// species is below genus). Returns false when either rank is unordered.
func (r Rank) Below(other Rank) bool {
	rd, ok1 := rankDepth[r]
	od, ok2 := rankDepth[other]
	return ok1 && ok2 && rd > od
}

// String returns the NCBI-style label for the rank.
func (r Rank) String() string {
	return string(r)
}

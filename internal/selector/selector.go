// Package selector implements artifact selection: given a release's asset
// list and a host descriptor, it picks exactly one asset, rejecting
// coincidental substring matches (a tool named "tarmac" must not be
// treated as an ARM or macOS build).
package selector

import (
	"fmt"

	"github.com/rokit-build/rokit/internal/model"
	"github.com/rokit-build/rokit/internal/rerr"
)

// candidate is one asset paired with its computed tier, used only while
// picking the winner.
type candidate struct {
	asset model.Asset
	fmt   model.Format
	tier  tier
}

// Select returns the single best asset for host among release's assets,
// or a NoCompatibleArtifact error if none qualify. toolName excludes its
// own tokens from OS/Arch consideration so a tool whose name happens to
// contain a platform word is not misclassified.
func Select(assets []model.Asset, host model.HostDescriptor, toolName string) (model.Artifact, error) {
	toolNameTokens := tokenSet(tokenize(toolName))

	var candidates []candidate
	for _, a := range assets {
		nameLower := foldCase.String(a.Name)
		if looksLikeSupplemental(nameLower) {
			continue
		}
		t := classify(tokenize(a.Name), toolNameTokens, host)
		if t == rejectedTier {
			continue
		}
		candidates = append(candidates, candidate{
			asset: a,
			fmt:   detectFormat(nameLower),
			tier:  t,
		})
	}

	if len(candidates) == 0 {
		return model.Artifact{}, rerr.New(rerr.KindNoCompatibleArtifact, "selector.Select",
			fmt.Errorf("no asset compatible with %s/%s among %d assets", host.OS, host.Arch, len(assets)))
	}

	best := bestTier(candidates)
	winner := pickByTiebreak(best)
	return model.Artifact{Asset: winner.asset, Format: winner.fmt}, nil
}

func bestTier(candidates []candidate) []candidate {
	min := candidates[0].tier
	for _, c := range candidates[1:] {
		if c.tier < min {
			min = c.tier
		}
	}
	var out []candidate
	for _, c := range candidates {
		if c.tier == min {
			out = append(out, c)
		}
	}
	return out
}

// pickByTiebreak applies §4.4's ordering within a tier: prefer compressed
// formats, then a shorter filename, then lexicographic order. Determinism
// here is what makes selection idempotent across repeated runs.
func pickByTiebreak(candidates []candidate) candidate {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if isBetterTiebreak(c, best) {
			best = c
		}
	}
	return best
}

func isBetterTiebreak(a, b candidate) bool {
	if ra, rb := formatRank[a.fmt], formatRank[b.fmt]; ra != rb {
		return ra < rb
	}
	if la, lb := len(a.asset.Name), len(b.asset.Name); la != lb {
		return la < lb
	}
	return a.asset.Name < b.asset.Name
}

package product

import (
	"context"
	"regexp"

	"github.com/hasakeplay/cms-backend/internal/adapters/repository"
	"github.com/hasakeplay/cms-backend/internal/core/domain"
	"github.com/hasakeplay/cms-backend/internal/models"
	"github.com/sirupsen/logrus"
)

type BackfillMode string

const (
	// BackfillFill copies legacy plain fields into empty locale maps.
	BackfillFill BackfillMode = "fill"
	// BackfillCleanup moves English text stored under vi to en and pairs
	// slug_i18n.en with slug_i18n.vi.
	BackfillCleanup BackfillMode = "cleanup"
)

type BackfillReport struct {
	Mode    BackfillMode `json:"mode"`
	Scanned int          `json:"scanned"`
	Updated int          `json:"updated"`
	DryRun  bool         `json:"dryRun"`
}

var (
	vietnameseLetters = regexp.MustCompile(`(?i)[ăâêôơưđàáạảãằắặẳẵầấậẩẫèéẹẻẽềếệểễìíịỉĩòóọỏõờớợởỡồốộổỗùúụủũừứựửữỳýỵỷỹ]`)
	latinLetter       = regexp.MustCompile(`(?i)[a-z]`)
)

func looksVietnamese(s string) bool {
	return s != "" && vietnameseLetters.MatchString(s)
}

func looksEnglish(s string) bool {
	return latinLetter.MatchString(s) && !looksVietnamese(s)
}

func (s *service) BackfillLocales(ctx context.Context, mode BackfillMode, dryRun bool) (BackfillReport, error) {
	report := BackfillReport{Mode: mode, DryRun: dryRun}

	var plan func(*models.ProductNode) repository.LocalePatch
	switch mode {
	case BackfillFill:
		plan = fillPatch
	case BackfillCleanup:
		plan = cleanupPatch
	default:
		return report, domain.Validation("mode must be one of: fill cleanup")
	}

	err := s.repo.Each(ctx, func(node *models.ProductNode) error {
		report.Scanned++
		patch := plan(node)
		if patch.Empty() {
			return nil
		}
		report.Updated++
		if dryRun {
			return nil
		}
		return s.repo.PatchLocales(ctx, node.ID, patch)
	})
	if err != nil {
		return report, domain.Internal("Locale backfill failed", err)
	}

	logrus.WithFields(logrus.Fields{
		"mode":    mode,
		"scanned": report.Scanned,
		"updated": report.Updated,
		"dryRun":  dryRun,
	}).Info("Locale backfill finished")
	return report, nil
}

func setIfMissing(p *repository.LocalePatch, path, value string) {
	if value == "" {
		return
	}
	if p.Set == nil {
		p.Set = map[string]string{}
	}
	if _, ok := p.Set[path]; ok {
		return
	}
	p.Set[path] = value
}

// guessLocale fills field_i18n from the plain value, choosing the locale by
// the presence of Vietnamese diacritics.
func guessLocale(p *repository.LocalePatch, field string, current map[string]string, plain string) {
	if plain == "" {
		return
	}
	vi, en := current["vi"], current["en"]
	switch {
	case vi == "" && en == "":
		if looksVietnamese(plain) {
			setIfMissing(p, field+".vi", plain)
		} else {
			setIfMissing(p, field+".en", plain)
		}
	case vi == "" && looksVietnamese(plain):
		setIfMissing(p, field+".vi", plain)
	case en == "" && !looksVietnamese(plain):
		setIfMissing(p, field+".en", plain)
	}
}

func fillPatch(n *models.ProductNode) repository.LocalePatch {
	var p repository.LocalePatch
	guessLocale(&p, "title_i18n", n.TitleI18n, n.Title)
	guessLocale(&p, "description_i18n", n.DescriptionI18n, n.Description)
	if n.TaglineI18n["vi"] == "" {
		setIfMissing(&p, "tagline_i18n.vi", n.Tagline)
	}
	if n.SlugI18n["vi"] == "" {
		setIfMissing(&p, "slug_i18n.vi", n.Slug)
	}
	return p
}

func cleanupPatch(n *models.ProductNode) repository.LocalePatch {
	var p repository.LocalePatch
	fields := []struct {
		name string
		text map[string]string
	}{
		{"title_i18n", n.TitleI18n},
		{"tagline_i18n", n.TaglineI18n},
		{"description_i18n", n.DescriptionI18n},
	}
	for _, f := range fields {
		vi := f.text["vi"]
		if vi != "" && looksEnglish(vi) {
			setIfMissing(&p, f.name+".en", vi)
			p.Unset = append(p.Unset, f.name+".vi")
		}
	}
	if vi := n.SlugI18n["vi"]; vi != "" && n.SlugI18n["en"] == "" {
		setIfMissing(&p, "slug_i18n.en", vi)
	}
	return p
}

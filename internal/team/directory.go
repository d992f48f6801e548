// Package team holds the static reviewer directory and the source-control identity map.
package team

import (
	"errors"
	"fmt"
	"strings"

	"github.com/SilverCrocus/slack-pr-bot/internal/domain"
)

type Config struct {
	Primary     string            `yaml:"primary" env:"TEAM_PRIMARY" env-default:"Nigel:U0123456789"`
	Members     []string          `yaml:"members" env:"TEAM_MEMBERS" env-separator:"," env-default:"Member1:U1111111111,Member2:U2222222222,Member3:U3333333333,Member4:U4444444444,Member5:U5555555555,Member6:U6666666666"`
	IdentityMap map[string]string `yaml:"identity_map" env:"GITHUB_USER_MAP"`
}

var (
	ErrEmptyDirectory = errors.New("team directory has no primary reviewer")
	ErrDuplicateName  = errors.New("duplicate team member name")
	ErrMalformedEntry = errors.New("team entry must look like Name:Handle")
)

// Directory is the ordered, immutable set of reviewers. The primary is kept apart from
// the rotation members.
type Directory struct {
	primary domain.ReviewerIdentity
	members []domain.ReviewerIdentity
}

// NewDirectory drops member entries that duplicate the primary by name or handle.
func NewDirectory(primary domain.ReviewerIdentity, members []domain.ReviewerIdentity) (*Directory, error) {
	if primary.Name == "" || primary.Handle == "" {
		return nil, ErrEmptyDirectory
	}

	seen := map[string]struct{}{primary.Name: {}}
	rotation := make([]domain.ReviewerIdentity, 0, len(members))
	for _, m := range members {
		if m.Name == primary.Name || m.Handle == primary.Handle {
			continue
		}
		if _, ok := seen[m.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, m.Name)
		}
		seen[m.Name] = struct{}{}
		rotation = append(rotation, m)
	}

	return &Directory{primary: primary, members: rotation}, nil
}

func FromConfig(cfg *Config) (*Directory, error) {
	primary, err := ParseEntry(cfg.Primary)
	if err != nil {
		return nil, fmt.Errorf("primary: %w", err)
	}

	members := make([]domain.ReviewerIdentity, 0, len(cfg.Members))
	for _, entry := range cfg.Members {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		m, err := ParseEntry(entry)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}

	return NewDirectory(primary, members)
}

// ParseEntry parses "Name:Handle".
func ParseEntry(entry string) (domain.ReviewerIdentity, error) {
	name, handle, ok := strings.Cut(strings.TrimSpace(entry), ":")
	name, handle = strings.TrimSpace(name), strings.TrimSpace(handle)
	if !ok || name == "" || handle == "" {
		return domain.ReviewerIdentity{}, fmt.Errorf("%w: %q", ErrMalformedEntry, entry)
	}

	return domain.ReviewerIdentity{Name: name, Handle: handle}, nil
}

func (d *Directory) Primary() domain.ReviewerIdentity {
	return d.primary
}

// Members returns the rotation members in directory order, primary excluded.
func (d *Directory) Members() []domain.ReviewerIdentity {
	out := make([]domain.ReviewerIdentity, len(d.members))
	copy(out, d.members)
	return out
}

// Names lists every reviewer name, primary first.
func (d *Directory) Names() []string {
	names := make([]string, 0, len(d.members)+1)
	names = append(names, d.primary.Name)
	for _, m := range d.members {
		names = append(names, m.Name)
	}

	return names
}

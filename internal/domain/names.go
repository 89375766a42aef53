package domain

import (
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	nameAdjectives = []string{"amber", "brave", "calm", "dapper", "eager", "fuzzy", "gentle", "happy", "icy", "jolly", "keen", "lucky", "mellow", "nimble", "odd", "proud", "quiet", "rapid", "shiny", "tidy", "urban", "vivid", "witty", "young", "zesty"}
	nameNouns      = []string{"anchor", "badger", "canyon", "delta", "ember", "falcon", "glacier", "harbor", "island", "jungle", "kettle", "lantern", "meadow", "nebula", "otter", "pepper", "quartz", "river", "summit", "tiger", "valley", "willow", "yak", "zephyr"}
)

// RandomProjectName returns a readable slug such as "brave-otter-summit".
func RandomProjectName() string {
	return strings.Join([]string{
		nameAdjectives[rand.IntN(len(nameAdjectives))],
		nameNouns[rand.IntN(len(nameNouns))],
		nameNouns[rand.IntN(len(nameNouns))],
	}, "-")
}

// NewProject creates a project for owner with a random name.
func NewProject(owner UserID, now time.Time) *Project {
	return &Project{
		ID:        NewProjectID(uuid.New()),
		OwnerID:   owner,
		Name:      RandomProjectName(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

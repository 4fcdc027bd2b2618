package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validRoadmap() Roadmap {
	return Roadmap{
		CrimeType:          "Theft (IPC Section 379)",
		ImmediateActions:   []string{"Note what was stolen", "Go to the nearest police station"},
		FIRSteps:           []string{"Carry identity proof", "Ask for the FIR copy"},
		EvidenceToPreserve: []string{"CCTV footage", "Purchase receipts"},
		RelevantLaws:       []string{"IPC Section 379"},
	}
}

// TestRoadmap_Validate_Complete tests that a complete roadmap has no violations
func TestRoadmap_Validate_Complete(t *testing.T) {
	assert.Empty(t, validRoadmap().Validate())
}

// TestRoadmap_Validate_Empty tests that an empty roadmap reports every field
func TestRoadmap_Validate_Empty(t *testing.T) {
	violations := Roadmap{}.Validate()
	assert.Len(t, violations, 5)
	assert.Contains(t, violations, "crime_type is empty")
	assert.Contains(t, violations, "immediate_actions is empty")
	assert.Contains(t, violations, "fir_steps is empty")
	assert.Contains(t, violations, "evidence_to_preserve is empty")
	assert.Contains(t, violations, "relevant_laws is empty")
}

// TestRoadmap_Validate_SingleMissingField tests that only the offending field is reported
func TestRoadmap_Validate_SingleMissingField(t *testing.T) {
	r := validRoadmap()
	r.RelevantLaws = nil

	violations := r.Validate()
	assert.Equal(t, []string{"relevant_laws is empty"}, violations)
}

// TestRoadmap_Validate_BlankEntries tests that whitespace-only entries count as empty
func TestRoadmap_Validate_BlankEntries(t *testing.T) {
	r := validRoadmap()
	r.FIRSteps = []string{"  ", "\t", ""}

	violations := r.Validate()
	assert.Equal(t, []string{"fir_steps is empty"}, violations)
}

// TestRoadmap_Validate_BlankCrimeType tests that a whitespace crime type is a violation
func TestRoadmap_Validate_BlankCrimeType(t *testing.T) {
	r := validRoadmap()
	r.CrimeType = "   "

	violations := r.Validate()
	assert.Equal(t, []string{"crime_type is empty"}, violations)
}

// TestRoadmap_Normalize tests trimming and blank-entry removal
func TestRoadmap_Normalize(t *testing.T) {
	r := Roadmap{
		CrimeType:          "  Cheating (IPC 420)  ",
		ImmediateActions:   []string{" first ", "", "second"},
		FIRSteps:           []string{"only step"},
		EvidenceToPreserve: []string{"\tscreenshots\n"},
		RelevantLaws:       []string{"IPC 420", "  "},
	}

	n := r.Normalize()
	assert.Equal(t, "Cheating (IPC 420)", n.CrimeType)
	assert.Equal(t, []string{"first", "second"}, n.ImmediateActions)
	assert.Equal(t, []string{"only step"}, n.FIRSteps)
	assert.Equal(t, []string{"screenshots"}, n.EvidenceToPreserve)
	assert.Equal(t, []string{"IPC 420"}, n.RelevantLaws)
}

// TestRoadmap_Normalize_PreservesOrder tests that normalisation keeps entry order
func TestRoadmap_Normalize_PreservesOrder(t *testing.T) {
	r := validRoadmap()
	n := r.Normalize()
	assert.Equal(t, r.ImmediateActions, n.ImmediateActions)
	assert.Equal(t, r.FIRSteps, n.FIRSteps)
}

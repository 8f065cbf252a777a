package cli

import (
	"strings"
	"testing"
)

func TestGenerateHookScript(t *testing.T) {
	script := generateHookScript("", false)

	if !strings.Contains(script, hookMarkerStart) {
		t.Error("Script missing start marker")
	}
	if !strings.Contains(script, hookMarkerEnd) {
		t.Error("Script missing end marker")
	}
	if !strings.Contains(script, "redline scan . --git --no-redact --format text\n") {
		t.Error("Script missing scan command with correct flags")
	}
	if !strings.Contains(script, "REDLINE_EXIT=$?") {
		t.Error("Script missing exit code capture")
	}
	if !strings.Contains(script, "exit 1") {
		t.Error("Script missing exit 1 for detected secrets")
	}
	if !strings.Contains(script, "allowing commit") {
		t.Error("Script missing warning for errors")
	}
}

func TestGenerateHookScript_CustomFlags(t *testing.T) {
	script := generateHookScript("*.go,*.ts", true)

	if !strings.Contains(script, "--paths '*.go,*.ts'") {
		t.Error("Script doesn't use custom paths")
	}
	if !strings.Contains(script, "--allow-sensitive") {
		t.Error("Script doesn't pass --allow-sensitive")
	}
}

func TestReplaceHookSection_NoExisting(t *testing.T) {
	existing := "#!/bin/sh\nsome-other-hook\n"
	section := generateHookScript("", false)

	result := replaceHookSection(existing, section)

	if !strings.HasPrefix(result, "#!/bin/sh\nsome-other-hook\n") {
		t.Error("Existing content should be preserved")
	}
	if !strings.Contains(result, hookMarkerStart) {
		t.Error("New section should be appended")
	}
}

func TestReplaceHookSection_ExistingSection(t *testing.T) {
	oldSection := generateHookScript("*.go", false)
	existing := "#!/bin/sh\nbefore\n" + oldSection + "after\n"
	newSection := generateHookScript("*.py", true)

	result := replaceHookSection(existing, newSection)

	if !strings.Contains(result, "before") {
		t.Error("Content before redline section should be preserved")
	}
	if !strings.Contains(result, "after") {
		t.Error("Content after redline section should be preserved")
	}
	if !strings.Contains(result, "--paths '*.py'") {
		t.Error("New section should have updated flags")
	}
	if strings.Contains(result, "--paths '*.go'") {
		t.Error("Old section should be replaced")
	}
	if strings.Count(result, hookMarkerStart) != 1 {
		t.Error("Section should appear exactly once")
	}
}

func TestRemoveHookSection(t *testing.T) {
	section := generateHookScript("", false)
	existing := "#!/bin/sh\nbefore\n" + section + "after\n"

	result := removeHookSection(existing)

	if strings.Contains(result, hookMarkerStart) {
		t.Error("Redline section should be removed")
	}
	if result != "#!/bin/sh\nbefore\nafter\n" {
		t.Errorf("result = %q", result)
	}
}

func TestRemoveHookSection_NoSection(t *testing.T) {
	existing := "#!/bin/sh\nsome-hook\n"
	result := removeHookSection(existing)
	if result != existing {
		t.Error("Content without redline section should be unchanged")
	}
}

func TestReplaceHookSection_NoTrailingNewline(t *testing.T) {
	existing := "#!/bin/sh\nsome-hook"
	section := generateHookScript("", false)

	result := replaceHookSection(existing, section)

	if !strings.HasPrefix(result, "#!/bin/sh\nsome-hook\n") {
		t.Error("Existing content should be preserved on its own line")
	}
	if !strings.Contains(result, hookMarkerStart) {
		t.Error("Section should be appended")
	}
}

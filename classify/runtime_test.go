package classify

import "testing"

func TestExtractContainerID_DockerPath(t *testing.T) {
	// S1: "0::/docker/abc123def4567890" -> container_id="abc123def4567890".
	got := ExtractContainerID("0::/docker/abc123def4567890")
	want := "abc123def4567890"
	if got != want {
		t.Fatalf("ExtractContainerID() = %q, want %q", got, want)
	}
}

func TestExtractContainerID_DockerScope(t *testing.T) {
	got := ExtractContainerID("1:name=systemd:/system.slice/docker-abc123def4567890abcdef1234567890abcdef1234567890abcdef123456.scope")
	want := "abc123def4567890abcdef1234567890abcdef1234567890abcdef123456"
	if got != want {
		t.Fatalf("ExtractContainerID() = %q, want %q", got, want)
	}
}

func TestExtractContainerID_LibpodScope(t *testing.T) {
	got := ExtractContainerID("1:name=systemd:/machine.slice/libpod-deadbeefcafe0123456789abcdef0123456789abcdef0123456789abcdef.scope")
	want := "deadbeefcafe0123456789abcdef0123456789abcdef0123456789abcdef"
	if got != want {
		t.Fatalf("ExtractContainerID() = %q, want %q", got, want)
	}
}

func TestExtractContainerID_Kubepods(t *testing.T) {
	got := ExtractContainerID("0::/kubepods/besteffort/pod9f8e7d6c/abc123def4567890abc123def4567890abc123def4567890abc123def4567")
	want := "abc123def4567890abc123def4567890abc123def4567890abc123def4567"
	if got != want {
		t.Fatalf("ExtractContainerID() = %q, want %q", got, want)
	}
}

func TestExtractContainerID_NoMatch(t *testing.T) {
	if got := ExtractContainerID("0::/user.slice/user-1000.slice"); got != "" {
		t.Fatalf("ExtractContainerID() = %q, want empty", got)
	}
}

func TestFirstCgroupPath_PrefersUnifiedHierarchy(t *testing.T) {
	content := "12:pids:/user.slice\n0::/docker/abc123def4567890\n"
	if got := firstCgroupPath(content); got != "/docker/abc123def4567890" {
		t.Fatalf("firstCgroupPath() = %q, want /docker/abc123def4567890", got)
	}
}

func TestFirstCgroupPath_FallsBackToFirstLine(t *testing.T) {
	content := "4:memory:/system.slice/foo.service\n1:name=systemd:/system.slice/foo.service\n"
	if got := firstCgroupPath(content); got != "/system.slice/foo.service" {
		t.Fatalf("firstCgroupPath() = %q, want /system.slice/foo.service", got)
	}
}

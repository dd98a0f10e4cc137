package testutil

import (
	"strings"

	"github.com/chuckie/autocommit/internal/domain"
)

// SampleDiffSmall is a small sample diff for testing.
const SampleDiffSmall = `diff --git a/main.go b/main.go
index 1234567..abcdefg 100644
--- a/main.go
+++ b/main.go
@@ -1,5 +1,10 @@
 package main

+import "fmt"
+
 func main() {
-    println("Hello")
+    fmt.Println("Hello, World!")
 }
`

// SampleDiffWithSecret contains an API key that must never reach a backend.
const SampleDiffWithSecret = `diff --git a/config.go b/config.go
--- a/config.go
+++ b/config.go
@@ -1,3 +1,3 @@
-const key = ""
+const key = "sk-1234567890abcdefghijklmnop"
`

// SampleDiffLarge is a large sample diff for testing diff capping (generated at runtime).
var SampleDiffLarge = func() string {
	const header = `diff --git a/very_long_file.go b/very_long_file.go
index 1234567..abcdefg 100644
--- a/very_long_file.go
+++ b/very_long_file.go
@@ -1,5 +1,1000 @@
 package main

`
	return header + strings.Repeat("+// This is a very long comment line that repeats\n", 200)
}()

// SampleMessage returns a valid generated message.
func SampleMessage() domain.CommitMessage {
	return domain.CommitMessage{
		Title:       "feat: greet the world",
		Description: "Use fmt.Println so the greeting includes punctuation.",
	}
}

// SampleReplyJSON is a well-formed model reply for SampleMessage.
const SampleReplyJSON = `{"title": "feat: greet the world", "description": "Use fmt.Println so the greeting includes punctuation."}`

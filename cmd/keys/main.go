package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/getAlby/rgbhub.go/lib/security"
)

// prints a fresh JWT_SECRET and, given a password argument, the bcrypt hash
// to use as NATIVE_AUTHENTICATION_PASSWORD
func main() {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("JWT_SECRET=%s\n", hex.EncodeToString(secret))

	if len(os.Args) < 2 {
		return
	}
	password := os.Args[1]
	if err := security.ValidatePasswordStrength(password); err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}
	hashed, err := security.HashPassword(password)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("NATIVE_AUTHENTICATION_PASSWORD='%s'\n", hashed)
}

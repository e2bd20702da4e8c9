// Command hashgen prints a bcrypt hash for ADMIN_PASSWORD_HASH.
//
//	hashgen -password 's3cret'
//	echo 's3cret' | hashgen
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"realty-listings/internal/auth"
)

func main() {
	password := flag.String("password", "", "password to hash (read from stdin when empty)")
	verify := flag.String("verify", "", "check the password against this hash instead of hashing")
	flag.Parse()

	pw := *password
	if pw == "" {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(os.Stderr, "no password given")
			os.Exit(2)
		}
		pw = strings.TrimRight(line, "\r\n")
	}
	if pw == "" {
		fmt.Fprintln(os.Stderr, "password must not be empty")
		os.Exit(2)
	}

	if *verify != "" {
		if auth.CheckPasswordHash(pw, *verify) {
			fmt.Println("match")
			return
		}
		fmt.Println("no match")
		os.Exit(1)
	}

	hash, err := auth.HashPassword(pw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash password: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}

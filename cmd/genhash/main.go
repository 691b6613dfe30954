// cmd/genhash prints the bcrypt hash stored in usuarios.password_hash.
//
//	genhash [-cost 12] <password>
//	echo -n secreto | genhash -
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	cost := flag.Int("cost", 12, "bcrypt cost")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "uso: genhash [-cost N] <password|->")
		os.Exit(2)
	}

	password := flag.Arg(0)
	if password == "-" {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(os.Stderr, "no se pudo leer stdin:", err)
			os.Exit(1)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if len(password) < 8 {
		fmt.Fprintln(os.Stderr, "la password debe tener al menos 8 caracteres")
		os.Exit(2)
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), *cost)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(string(h))
}

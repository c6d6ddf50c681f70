/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"github.com/ssargent/coldtree/cmd/coldtreectl/cmd"
)

func main() {
	cmd.Execute()
}

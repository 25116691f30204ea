/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/techzara/platform/cmd"

func main() {
	cmd.Execute()
}

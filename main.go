/*
Copyright (c) 2026 moyaru <rbffo@icloud.com>
*/

package main

import "github.com/MOYARU/verid/cmd"

func main() {
	cmd.Execute()
}

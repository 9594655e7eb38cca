package main

import "magiskbuild/internal/magiskbuild"

func main() {
	magiskbuild.Main()
}

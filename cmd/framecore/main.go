// Command framecore exercises the framecore runtime primitives.
package main

func main() {
	execute()
}

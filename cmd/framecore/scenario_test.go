package main

import "time"

const waitFor = 10 * time.Second

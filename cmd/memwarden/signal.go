/*
 * Copyright 2024 The Memwarden Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"os"
	"os/signal"
	"syscall"
)

var quits = make(chan os.Signal, 1)

func init() {
	signal.Notify(quits, syscall.SIGINT, syscall.SIGTERM)
}

// awaitShutdown blocks until the process receives an interrupt or
// termination signal
func awaitShutdown() {
	<-quits
}

// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"fmt"
	"os"

	"github.com/consensys/go-cairo/pkg/air"
	"github.com/consensys/go-cairo/pkg/prover"
	"github.com/consensys/go-cairo/pkg/trace"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// proveCmd represents the prove command
var proveCmd = &cobra.Command{
	Use:   "prove [flags] program_file trace_file memory_file",
	Short: "Generate a proof for a recorded execution.",
	Long: `Generate a proof for a recorded execution, given the compiled program (JSON),
	the register trace and the partial memory image (binary) emitted by the machine runner.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Configure log level
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
		//
		if len(args) != 3 {
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}
		//
		options := air.DefaultProofOptions()
		options.BlowupFactor = GetUint(cmd, "blowup")
		options.NumQueries = GetUint(cmd, "queries")
		options.GrindingBits = GetUint(cmd, "grinding")
		options.FoldingFactor = GetUint(cmd, "folding")
		options.MaxRemainderSize = GetUint(cmd, "remainder")
		output := GetString(cmd, "output")
		// Load the recorded execution
		execution, err := trace.FromFiles(args[0], args[1], args[2])
		if err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		//
		log.Debugf("loaded execution of %d steps", execution.Length())
		// Go!
		proof, err := prover.Prove(execution, air.NewBoundarySchema, options)
		if err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		// Serialise the proof
		writeProofFile(proof, output)
	},
}

// Serialise a proof to the given file.
func writeProofFile(proof *prover.Proof, filename string) {
	file, err := os.Create(filename)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	//
	defer file.Close()
	//
	if err := proof.Encode(file); err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	//
	if info, err := file.Stat(); err == nil {
		log.Infof("wrote %s (%d bytes)", filename, info.Size())
	}
}

func init() {
	rootCmd.AddCommand(proveCmd)
	proveCmd.Flags().StringP("output", "o", "proof.bin", "file to write the proof to")
	proveCmd.Flags().Uint("blowup", air.DefaultProofOptions().BlowupFactor, "evaluation domain blowup factor")
	proveCmd.Flags().Uint("queries", air.DefaultProofOptions().NumQueries, "number of query positions")
	proveCmd.Flags().Uint("grinding", air.DefaultProofOptions().GrindingBits, "proof-of-work difficulty in bits")
	proveCmd.Flags().Uint("folding", air.DefaultProofOptions().FoldingFactor, "low-degree proof folding factor")
	proveCmd.Flags().Uint("remainder", air.DefaultProofOptions().MaxRemainderSize, "maximum size of the final low-degree layer")
}

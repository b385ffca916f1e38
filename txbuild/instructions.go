// Package txbuild constructs the unsigned transaction templates used by the
// marketplace's payment, reward, and refund flows, and submits signed
// reward/refund transactions with per-fee-payer serialization.
package txbuild

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"

	blink402 "github.com/Blink402/blink402-mcp"
)

// ComputeBudgetProgramID is the Solana Compute Budget program.
var ComputeBudgetProgramID = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")

// Compute Budget instruction discriminators.
const (
	computeUnitLimitDiscriminator byte = 2
	computeUnitPriceDiscriminator byte = 3
)

const (
	// PaymentComputeUnits covers a plain token transfer.
	PaymentComputeUnits uint32 = 200_000

	// RewardComputeUnits covers worst-case idempotent account creation plus
	// transfer plus a memo. Under-provisioning makes otherwise-valid
	// transactions fail deep in execution, so these err on the high side.
	RewardComputeUnits uint32 = 400_000

	// DefaultComputeUnitPrice is the default priority fee in microlamports.
	DefaultComputeUnitPrice uint64 = 10_000
)

// setComputeUnitLimit builds a SetComputeUnitLimit instruction:
// [discriminator, units u32 LE].
func setComputeUnitLimit(units uint32) solana.Instruction {
	data := make([]byte, 5)
	data[0] = computeUnitLimitDiscriminator
	binary.LittleEndian.PutUint32(data[1:], units)
	return solana.NewInstruction(ComputeBudgetProgramID, solana.AccountMetaSlice{}, data)
}

// setComputeUnitPrice builds a SetComputeUnitPrice instruction:
// [discriminator, microlamports u64 LE].
func setComputeUnitPrice(microLamports uint64) solana.Instruction {
	data := make([]byte, 9)
	data[0] = computeUnitPriceDiscriminator
	binary.LittleEndian.PutUint64(data[1:], microLamports)
	return solana.NewInstruction(ComputeBudgetProgramID, solana.AccountMetaSlice{}, data)
}

// associatedTokenAddress derives the ATA for owner and mint.
func associatedTokenAddress(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, blink402.NewVerificationError(blink402.CodeConfiguration,
			fmt.Sprintf("derive token account for %s", owner), err)
	}
	return ata, nil
}

// createIdempotentATA builds a CreateIdempotent associated-token-account
// instruction (instruction index 1). Unlike plain Create it succeeds when the
// account already exists, so reward templates are safe to build without
// knowing whether the counterparty ever held the asset.
func createIdempotentATA(payer, owner, mint solana.PublicKey) (solana.Instruction, error) {
	ata, err := associatedTokenAddress(owner, mint)
	if err != nil {
		return nil, err
	}

	accounts := solana.AccountMetaSlice{
		{PublicKey: payer, IsSigner: true, IsWritable: true},
		{PublicKey: ata, IsSigner: false, IsWritable: true},
		{PublicKey: owner, IsSigner: false, IsWritable: false},
		{PublicKey: mint, IsSigner: false, IsWritable: false},
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
	}

	return solana.NewInstruction(solana.SPLAssociatedTokenAccountProgramID, accounts, []byte{1}), nil
}

// memoInstruction builds a Memo program instruction signed by signer.
func memoInstruction(memo string, signer solana.PublicKey) solana.Instruction {
	accounts := solana.AccountMetaSlice{
		{PublicKey: signer, IsSigner: true, IsWritable: false},
	}
	return solana.NewInstruction(solana.MemoProgramID, accounts, []byte(memo))
}

// transferChecked builds an SPL TransferChecked instruction.
func transferChecked(source, mint, destination, owner solana.PublicKey, amount uint64, decimals uint8) solana.Instruction {
	return token.NewTransferCheckedInstructionBuilder().
		SetAmount(amount).
		SetDecimals(decimals).
		SetSourceAccount(source).
		SetMintAccount(mint).
		SetDestinationAccount(destination).
		SetOwnerAccount(owner).
		Build()
}

// nativeTransfer builds a System program lamport transfer.
func nativeTransfer(from, to solana.PublicKey, lamports uint64) solana.Instruction {
	return system.NewTransferInstruction(lamports, from, to).Build()
}

// withReference re-wraps an instruction with the payment reference appended
// as a read-only, non-signing account, which is how the locator later finds
// the transaction through signature history for the reference address.
func withReference(ix solana.Instruction, ref blink402.PaymentReference) (solana.Instruction, error) {
	data, err := ix.Data()
	if err != nil {
		return nil, fmt.Errorf("serialize instruction data: %w", err)
	}
	accounts := make(solana.AccountMetaSlice, 0, len(ix.Accounts())+1)
	accounts = append(accounts, ix.Accounts()...)
	accounts = append(accounts, &solana.AccountMeta{PublicKey: ref.Key()})
	return solana.NewInstruction(ix.ProgramID(), accounts, data), nil
}

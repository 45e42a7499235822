package circuits

// The circuits package contains the shared pieces of the confidential
// transfer circuit: constants, in-circuit ElGamal helpers and the cache of
// circuit artifacts (constraint system, proving and verifying keys).
//
// A transfer is proven with a single groth16 proof over BN254. The
// ciphertexts and account keys live on BabyJubJub, the twisted Edwards curve
// defined over the BN254 scalar field, so every curve operation is native in
// the circuit:
//
// +------------+
// | Transfer   |  BabyJubJub (BN254)  	<- native
// |   Proof    |
// +------------+
//
// The proof binds three ciphertexts (sender balance delta, recipient amount
// and fee) to the same committed amount and fee, shows that the sender owns
// the decryption key of its balance and that the balance covers the
// transfer.

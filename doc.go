// Package suiadp and its sub-packages implement a wallet client and backend services for the Sui network.
/*
suiadp provides a library and two microservices:

1) a transfer engine (package lib/engine) that imports a private key, connects to a Sui full node and sends SUI,
 reporting every failure with its kind and the stage the transfer had reached.

2) a wallet microservice (package wallet) that implements a RESTful API for user requests such as checking the
 balances and coins of an address, coin metadata, sending SUI from an HD wallet account, getting the details of
 transactions and monitoring addresses.

3) an explorer microservice (package explorer) that scans checkpoints and provides real-time events for those
 addresses that monitoring has been requested for.

The suictl command (cmd/suictl) exposes the engine and the network queries from the command line.

Architecture

The wallet and explorer services communicate via a message broker. The user can request the explorer to monitor
addresses channeling requests to the message broker. The explorer service consumes requests and monitors addresses.
When an address is involved in a transaction, the explorer will send an event to the message broker. The wallet
listens to these events to update the status of the transfers it sent. The message broker is implemented as a product
agnostic layer (package lib/msg) with AMQP and in-memory implementations.

Both wallet and explorer use a database for persistence (package lib/store): an embedded bbolt file by default, or
MongoDB or PostgreSQL. The database can be shared by the microservices.

The network layer (package lib/block and lib/block/sui) speaks the Sui JSON-RPC API: balances, coins, coin metadata,
reference gas price, transaction execution and checkpoints. Transactions are built as BCS TransactionData and signed
with Ed25519 or Secp256k1 keys (packages lib/txn and lib/keys).

The microservices can also be monitored via a Prometheus API by setting the flag "-m" at startup.

Wallet

The wallet microservice can be started running cmd/wallet/main.go. It exposes an HTTP RESTful API that can be used by
multiple clients and provides a hierarchical deterministic wallet (HD wallet) which comes quite handy in a single-user
configuration. Transfers it sends are stored with their digest and status.

Explorer

The explorer microservice can be started running cmd/explorer/main.go. It follows the chain of checkpoints of every
configured network, checking that each one links to the previous digest, and sends transaction events to the message
broker when an address being monitored is involved.

*/
package suiadp

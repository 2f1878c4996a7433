package network

import (
	pb "github.com/manelneto/ledger/kademliapb"
)

// ContactToProto converts a contact to its wire representation.
func ContactToProto(contact Contact) *pb.NodeInfo {
	return &pb.NodeInfo{
		NodeId:      contact.ID[:],
		NodeAddress: contact.IPAddress,
		Port:        contact.Port,
		PublicKey:   contact.PublicKey,
	}
}

// ContactFromProto converts a wire node into a contact. It fails when
// the identifier does not have the right length; deeper checks (the
// binding between identifier and public key) are the caller's concern.
func ContactFromProto(nodeInfo *pb.NodeInfo) (Contact, error) {
	if nodeInfo == nil {
		return Contact{}, ErrorInvalidIDLength
	}
	id, err := NodeIDFromBytes(nodeInfo.NodeId)
	if err != nil {
		return Contact{}, err
	}
	return Contact{
		ID:        id,
		IPAddress: nodeInfo.NodeAddress,
		Port:      nodeInfo.Port,
		PublicKey: nodeInfo.PublicKey,
	}, nil
}

// ContactsToProto converts a list of contacts to the wire format.
func ContactsToProto(contacts []Contact) []*pb.NodeInfo {
	nodeInfos := make([]*pb.NodeInfo, len(contacts))
	for i, contact := range contacts {
		nodeInfos[i] = ContactToProto(contact)
	}
	return nodeInfos
}

// ContactsFromProto converts wire nodes to contacts, dropping the
// malformed ones.
func ContactsFromProto(nodeInfos []*pb.NodeInfo) []Contact {
	contacts := make([]Contact, 0, len(nodeInfos))
	for _, nodeInfo := range nodeInfos {
		if contact, err := ContactFromProto(nodeInfo); err == nil {
			contacts = append(contacts, contact)
		}
	}
	return contacts
}
